package models

import "github.com/shopspring/decimal"

// MonthRevenue - выручка за один месяц.
type MonthRevenue struct {
	Month             string          `json:"month"`
	FixedRevenue      decimal.Decimal `json:"fixedRevenue"`
	CommissionRevenue decimal.Decimal `json:"commissionRevenue"`
	Total             decimal.Decimal `json:"total"`
}

// FinanceSummary - финансовая сводка консультанта.
type FinanceSummary struct {
	Month               MonthRevenue    `json:"month"`
	CurrentMonthlyFixed decimal.Decimal `json:"currentMonthlyFixed"`
	ActiveContracts     int             `json:"activeContracts"`
	CommissionsPending  decimal.Decimal `json:"commissionsPending"`
	CommissionsReceived decimal.Decimal `json:"commissionsReceived"`
	History             []MonthRevenue  `json:"history"`
}
