// Package scheduler ищет заявки с приближающимся сроком и отправляет клиентам напоминания.
//
// Запуск идемпотентен: напоминание уходит только по заявкам в статусе Pending
// с notified = false, а успешная отправка сразу переводит заявку в WaitingClient.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/senyabanana/bid-tracker/internal/lifecycle"
	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/monitoring"
	"github.com/senyabanana/bid-tracker/internal/notify"
	"github.com/senyabanana/bid-tracker/internal/repository"
)

// Selection - правило выбора заявок по сроку.
type Selection string

const (
	// SelectWindow берёт все сроки от завтра до целевой даты включительно:
	// неудачная отправка повторится на следующих запусках.
	SelectWindow Selection = "window"
	// SelectExact берёт только сроки, совпадающие с целевой датой.
	SelectExact Selection = "exact"
)

// maxMarkAttempts ограничивает повторы перехода в WaitingClient при конфликтах версий.
const maxMarkAttempts = 5

// BidStore - операции с заявками, нужные планировщику.
type BidStore interface {
	ListDueForReminder(ctx context.Context, after, until time.Time) ([]models.Bid, error)
	GetBid(ctx context.Context, bidID string) (*models.Bid, error)
	UpdateBid(ctx context.Context, bid models.Bid) (*models.Bid, error)
	MarkNotified(ctx context.Context, bidID string, at time.Time) error
}

// ClientStore загружает клиентов выбранных заявок.
type ClientStore interface {
	ListClientsByIDs(ctx context.Context, ids []string) ([]models.Client, error)
}

// SettingsResolver возвращает настройки консультанта или nil, если их нет.
type SettingsResolver interface {
	Resolve(ctx context.Context, ownerID string) (*models.Settings, error)
}

// Mailer отправляет письмо через почтовый сервер консультанта.
type Mailer interface {
	Send(ctx context.Context, settings *models.Settings, purpose string, msg notify.Message) error
}

// Options - параметры планировщика.
type Options struct {
	BusinessDays int
	Selection    Selection
	Location     *time.Location
	PortalURL    string
	Now          func() time.Time
}

// Scheduler - планировщик напоминаний.
type Scheduler struct {
	bids     BidStore
	clients  ClientStore
	settings SettingsResolver
	mailer   Mailer
	logger   *log.Logger
	opts     Options
}

// New создаёт планировщик.
func New(bids BidStore, clients ClientStore, settings SettingsResolver, mailer Mailer, logger *log.Logger, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Selection == "" {
		opts.Selection = SelectWindow
	}
	return &Scheduler{
		bids:     bids,
		clients:  clients,
		settings: settings,
		mailer:   mailer,
		logger:   logger,
		opts:     opts,
	}
}

// Window возвращает полуинтервал дат (after, target] для запуска в момент now.
func (s *Scheduler) Window(now time.Time) (after, target time.Time) {
	local := now.In(s.opts.Location)
	target = AddBusinessDays(local, s.opts.BusinessDays)
	if s.opts.Selection == SelectExact {
		after = target.AddDate(0, 0, -1)
	} else {
		after = truncateToDate(local)
	}
	return dateKey(after), dateKey(target)
}

// Run выполняет один проход: выбирает заявки, отправляет напоминания и возвращает отчёт.
// Ошибка возвращается только если не удалось получить список заявок или клиентов;
// сбои по отдельным заявкам попадают в отчёт.
func (s *Scheduler) Run(ctx context.Context) (*models.ReminderReport, error) {
	started := time.Now()
	report, err := s.run(ctx)
	found := 0
	if report != nil {
		found = report.Found
	}
	monitoring.RecordSchedulerRun(found, err, time.Since(started))
	return report, err
}

func (s *Scheduler) run(ctx context.Context) (*models.ReminderReport, error) {
	now := s.opts.Now()
	after, target := s.Window(now)

	due, err := s.bids.ListDueForReminder(ctx, after, target)
	if err != nil {
		return nil, fmt.Errorf("select due bids: %w", err)
	}

	report := &models.ReminderReport{
		TargetDate:  target.Format(time.DateOnly),
		WindowStart: after.AddDate(0, 0, 1).Format(time.DateOnly),
		Found:       len(due),
		Results:     []models.ReminderResult{},
	}
	if len(due) == 0 {
		return report, nil
	}

	clients, err := s.loadClients(ctx, due)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]*models.Settings)
	for _, bid := range due {
		if err := ctx.Err(); err != nil {
			report.Error = fmt.Sprintf("run interrupted after %d of %d bids: %v", len(report.Results), report.Found, err)
			s.logger.Printf("reminders: target %s, %s, sent %d", report.TargetDate, report.Error, report.Sent)
			return report, err
		}

		settings, ok := resolved[bid.OwnerID]
		var result models.ReminderResult
		if !ok {
			settings, err = s.settings.Resolve(ctx, bid.OwnerID)
			if err != nil {
				result = failure(bid.ID, models.OutcomeFailedStore, fmt.Errorf("resolve settings: %w", err))
				s.record(result)
				report.Results = append(report.Results, result)
				continue
			}
			resolved[bid.OwnerID] = settings
		}

		result = s.remind(ctx, bid, clients[bid.ClientID], settings, now)
		s.record(result)
		if result.Outcome == models.OutcomeSent {
			report.Sent++
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Printf("reminders: target %s, found %d, sent %d", report.TargetDate, report.Found, report.Sent)
	return report, nil
}

func (s *Scheduler) loadClients(ctx context.Context, bids []models.Bid) (map[string]models.Client, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(bids))
	for _, bid := range bids {
		if !seen[bid.ClientID] {
			seen[bid.ClientID] = true
			ids = append(ids, bid.ClientID)
		}
	}
	list, err := s.clients.ListClientsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	clients := make(map[string]models.Client, len(list))
	for _, client := range list {
		clients[client.ID] = client
	}
	return clients, nil
}

func (s *Scheduler) remind(ctx context.Context, bid models.Bid, client models.Client, settings *models.Settings, now time.Time) models.ReminderResult {
	if settings == nil {
		return models.ReminderResult{BidID: bid.ID, Outcome: models.OutcomeSkippedNoConfig}
	}
	if client.ID == "" || client.Email == "" {
		return failure(bid.ID, models.OutcomeFailedConfig, errors.New("client has no e-mail address"))
	}

	msg, err := notify.BuildReminder(*settings, client, bid, s.opts.PortalURL)
	if err != nil {
		return failure(bid.ID, models.OutcomeFailedConfig, err)
	}
	if err := s.mailer.Send(ctx, settings, "reminder", msg); err != nil {
		if notify.IsConfigError(err) {
			return failure(bid.ID, models.OutcomeFailedConfig, err)
		}
		return failure(bid.ID, models.OutcomeFailedTransport, err)
	}

	if err := s.markSent(ctx, bid, now); err != nil {
		return failure(bid.ID, models.OutcomeFailedStore, fmt.Errorf("reminder sent but not recorded: %w", err))
	}
	return models.ReminderResult{BidID: bid.ID, Outcome: models.OutcomeSent}
}

// markSent переводит заявку в WaitingClient. Если заявку успели изменить,
// перечитывает её и повторяет переход, пока он допустим. Если заявка уже
// не в Pending, только отмечает, что письмо ушло. Если все попытки
// проиграли конкурентной записи, заявка остаётся в Pending с notified=false
// и попадёт в следующий запуск.
func (s *Scheduler) markSent(ctx context.Context, bid models.Bid, now time.Time) error {
	current := bid
	for attempt := 0; attempt < maxMarkAttempts; attempt++ {
		next, err := lifecycle.Transition(current, lifecycle.Reminder(now))
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return s.bids.MarkNotified(ctx, bid.ID, now)
		}
		if err != nil {
			return err
		}

		_, err = s.bids.UpdateBid(ctx, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConcurrentUpdate) {
			return err
		}

		fresh, err := s.bids.GetBid(ctx, bid.ID)
		if err != nil {
			return err
		}
		current = *fresh
	}
	return fmt.Errorf("mark bid %s reminded after %d attempts: %w", bid.ID, maxMarkAttempts, repository.ErrConcurrentUpdate)
}

func (s *Scheduler) record(result models.ReminderResult) {
	monitoring.RecordReminder(result.Outcome)
	if result.Error != "" {
		s.logger.Printf("reminder for bid %s: %s: %s", result.BidID, result.Outcome, result.Error)
	}
}

func failure(bidID string, outcome models.ReminderOutcome, err error) models.ReminderResult {
	return models.ReminderResult{BidID: bidID, Outcome: outcome, Error: err.Error()}
}
