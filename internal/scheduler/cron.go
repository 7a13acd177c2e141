package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartCron запускает Run по расписанию spec в часовом поясе loc.
// Если предыдущий запуск ещё идёт, очередной пропускается.
// Остановить расписание: c.Stop().
func StartCron(ctx context.Context, spec string, loc *time.Location, s *Scheduler, timeout time.Duration, logger *log.Logger) (*cron.Cron, error) {
	cronLogger := cron.VerbosePrintfLogger(logger)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		report, err := s.Run(runCtx)
		if err != nil {
			logger.Printf("scheduled reminder run failed: %v", err)
			if report != nil {
				logger.Printf("partial reminder run: target %s, found %d, sent %d, processed %d", report.TargetDate, report.Found, report.Sent, len(report.Results))
			}
			return
		}
		logger.Printf("scheduled reminder run: target %s, found %d, sent %d", report.TargetDate, report.Found, report.Sent)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	c.Start()
	return c, nil
}
