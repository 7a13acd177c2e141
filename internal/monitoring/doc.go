// Package monitoring содержит метрики Prometheus для движка заявок:
// исходы напоминаний, длительность запусков планировщика, отправки писем
// и решения клиентов.
//
// Все метрики называются bidtracker_<component>_<metric>_<unit> и
// регистрируются в реестре по умолчанию при импорте пакета.
//
// Пример:
//
//	monitoring.RecordReminder(models.OutcomeSent)
//	monitoring.RecordSchedulerRun(report.Found, err, elapsed)
package monitoring
