package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client представляет компанию, от имени которой ведутся заявки.
type Client struct {
	ID             string              `json:"id"`
	OwnerID        string              `json:"ownerId"`
	Name           string              `json:"name"`
	Company        string              `json:"company"`
	Email          string              `json:"email"`
	ContractValue  decimal.NullDecimal `json:"contractValue"`
	CommissionRate decimal.Decimal     `json:"commissionRate"`
	Active         bool                `json:"active"`
	AccessToken    *string             `json:"accessToken,omitempty"`
	AuthUserID     *string             `json:"authUserId,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// ClientRequest представляет структуру запроса для создания или изменения клиента.
type ClientRequest struct {
	Name           string              `json:"name"`
	Company        string              `json:"company"`
	Email          string              `json:"email"`
	ContractValue  decimal.NullDecimal `json:"contractValue"`
	CommissionRate *decimal.Decimal    `json:"commissionRate"`
}

// PortalClient - данные клиента, видимые в портале.
type PortalClient struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

// PortalBid - заявка глазами клиента, без финансовых полей консультанта.
type PortalBid struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Deadline    time.Time    `json:"deadline"`
	LinkDocs    string       `json:"linkDocs,omitempty"`
	Attachments []Attachment `json:"attachments"`
	Status      BidStatus    `json:"status"`
	Decision    BidDecision  `json:"decision"`
	DecisionAt  *time.Time   `json:"decisionAt,omitempty"`
	CanDecide   bool         `json:"canDecide"`
}

// NewPortalBid готовит заявку для портала клиента. CanDecide заполняет вызывающий.
func NewPortalBid(bid Bid) PortalBid {
	return PortalBid{
		ID:          bid.ID,
		Title:       bid.Title,
		Deadline:    bid.Deadline,
		LinkDocs:    bid.LinkDocs,
		Attachments: bid.Attachments,
		Status:      bid.Status,
		Decision:    bid.Decision,
		DecisionAt:  bid.DecisionAt,
	}
}

// PortalView - ответ портала клиента: сам клиент и его заявки.
type PortalView struct {
	Client PortalClient `json:"client"`
	Bids   []PortalBid  `json:"bids"`
}

// DecisionRequest - тело запроса с решением клиента.
type DecisionRequest struct {
	Decision BidDecision `json:"decision"`
}

// PortalUserRequest - тело запроса привязки пользователя портала к клиенту.
type PortalUserRequest struct {
	AuthUserID string `json:"authUserId"`
}
