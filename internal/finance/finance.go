// Package finance считает выручку консультанта: фиксированные контракты и комиссии с выигранных заявок.
//
// Фиксированная часть месяца берёт клиентов, подключившихся до конца месяца и
// активных сейчас: история активности не хранится, поэтому ушедший клиент
// пропадает и из прошлых месяцев.
package finance

import (
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultHistoryMonths - глубина истории по умолчанию.
const DefaultHistoryMonths = 6

var hundred = decimal.NewFromInt(100)

// Commission возвращает комиссию по заявке: finalValue * rate / 100.
// Без итоговой суммы комиссия равна нулю.
func Commission(bid models.Bid) decimal.Decimal {
	if !bid.FinalValue.Valid {
		return decimal.Zero
	}
	rate := decimal.Zero
	if bid.CommissionRate.Valid {
		rate = bid.CommissionRate.Decimal
	}
	return bid.FinalValue.Decimal.Mul(rate).Div(hundred)
}

// MonthStart возвращает первое число месяца t в его часовом поясе.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// MonthlyRevenue считает выручку за месяц, в который попадает month.
func MonthlyRevenue(month time.Time, clients []models.Client, bids []models.Bid) models.MonthRevenue {
	start := MonthStart(month)
	next := start.AddDate(0, 1, 0)

	fixed := decimal.Zero
	for _, client := range clients {
		if !client.Active || !client.ContractValue.Valid {
			continue
		}
		if !client.CreatedAt.IsZero() && !client.CreatedAt.Before(next) {
			continue
		}
		fixed = fixed.Add(client.ContractValue.Decimal)
	}

	commission := decimal.Zero
	for _, bid := range bids {
		if bid.Status != models.StatusWon {
			continue
		}
		y, m, _ := bid.Deadline.Date()
		if y != start.Year() || m != start.Month() {
			continue
		}
		commission = commission.Add(Commission(bid))
	}

	return models.MonthRevenue{
		Month:             start.Format("2006-01"),
		FixedRevenue:      fixed,
		CommissionRevenue: commission,
		Total:             fixed.Add(commission),
	}
}

// Summarize собирает сводку на месяц month и историю за months месяцев, заканчивая им.
func Summarize(month time.Time, months int, clients []models.Client, bids []models.Bid) models.FinanceSummary {
	if months <= 0 {
		months = DefaultHistoryMonths
	}

	summary := models.FinanceSummary{
		Month:               MonthlyRevenue(month, clients, bids),
		CurrentMonthlyFixed: decimal.Zero,
		CommissionsPending:  decimal.Zero,
		CommissionsReceived: decimal.Zero,
		History:             make([]models.MonthRevenue, 0, months),
	}

	for _, client := range clients {
		if !client.Active {
			continue
		}
		summary.ActiveContracts++
		if client.ContractValue.Valid {
			summary.CurrentMonthlyFixed = summary.CurrentMonthlyFixed.Add(client.ContractValue.Decimal)
		}
	}

	for _, bid := range bids {
		if bid.Status != models.StatusWon {
			continue
		}
		if bid.FinancialStatus == models.SettlementPaid {
			summary.CommissionsReceived = summary.CommissionsReceived.Add(Commission(bid))
		} else {
			summary.CommissionsPending = summary.CommissionsPending.Add(Commission(bid))
		}
	}

	start := MonthStart(month)
	for i := months - 1; i >= 0; i-- {
		summary.History = append(summary.History, MonthlyRevenue(start.AddDate(0, -i, 0), clients, bids))
	}
	return summary
}
