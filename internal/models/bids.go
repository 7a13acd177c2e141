package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	BidStatus       string // Статус заявки на доске
	BidDecision     string // Решение клиента по заявке
	FinancialStatus string // Статус расчёта по комиссии
)

const (
	StatusPending       BidStatus = "Pending"       // Заявка создана, клиент ещё не уведомлён
	StatusWaitingClient BidStatus = "WaitingClient" // Напоминание отправлено, ждём решения клиента
	StatusWaitingBid    BidStatus = "WaitingBid"    // Клиент участвует, ждём дня торгов
	StatusDiscarded     BidStatus = "Discarded"     // Клиент отказался
	StatusWon           BidStatus = "Won"           // Торги выиграны
	StatusLost          BidStatus = "Lost"          // Торги проиграны

	DecisionPending     BidDecision = "Pending"     // Решения нет
	DecisionParticipate BidDecision = "Participate" // Клиент участвует
	DecisionDiscard     BidDecision = "Discard"     // Клиент отказался

	SettlementAwaitingInvoice FinancialStatus = "AwaitingInvoice" // Ждём выставления счёта
	SettlementPending         FinancialStatus = "Pending"         // Счёт выставлен, оплаты нет
	SettlementPaid            FinancialStatus = "Paid"            // Комиссия получена
)

// BidStatuses перечисляет все статусы в порядке колонок доски.
var BidStatuses = []BidStatus{StatusPending, StatusWaitingClient, StatusWaitingBid, StatusWon, StatusLost, StatusDiscarded}

// Valid проверяет, что статус входит в закрытый список.
func (s BidStatus) Valid() bool {
	for _, status := range BidStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// Terminal сообщает, завершён ли процесс по заявке.
func (s BidStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusDiscarded
}

// Valid проверяет статус расчёта.
func (s FinancialStatus) Valid() bool {
	return s == SettlementAwaitingInvoice || s == SettlementPending || s == SettlementPaid
}

// Attachment описывает файл заявки в объектном хранилище.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Key  string `json:"key,omitempty"`
}

// Bid представляет модель заявки (закупки), которую ведёт консультант.
type Bid struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"ownerId"`
	ClientID        string              `json:"clientId"`
	ClientName      string              `json:"clientName,omitempty"`
	Title           string              `json:"title"`
	Deadline        time.Time           `json:"deadline"`
	LinkDocs        string              `json:"linkDocs,omitempty"`
	Attachments     []Attachment        `json:"attachments"`
	Status          BidStatus           `json:"status"`
	Decision        BidDecision         `json:"decision"`
	DecisionAt      *time.Time          `json:"decisionAt,omitempty"`
	Notified        bool                `json:"notified"`
	ReminderSentAt  *time.Time          `json:"reminderSentAt,omitempty"`
	SummarySentAt   *time.Time          `json:"summarySentAt,omitempty"`
	FinalValue      decimal.NullDecimal `json:"finalValue"`
	CommissionRate  decimal.NullDecimal `json:"commissionRate"`
	FinancialStatus FinancialStatus     `json:"financialStatus"`
	Version         int                 `json:"version"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// BidRequest представляет структуру запроса для создания или изменения заявки.
type BidRequest struct {
	Title          string              `json:"title"`
	Deadline       string              `json:"deadline"`
	LinkDocs       *string             `json:"linkDocs"`
	ClientID       string              `json:"clientId"`
	Attachments    []Attachment        `json:"attachments"`
	FinalValue     decimal.NullDecimal `json:"finalValue"`
	CommissionRate decimal.NullDecimal `json:"commissionRate"`
}

// BidStats - сводка для дашборда.
type BidStats struct {
	Total    int               `json:"total"`
	ByStatus map[BidStatus]int `json:"byStatus"`
	Urgent   []Bid             `json:"urgent"`
}
