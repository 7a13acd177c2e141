package notify

import "strings"

// Поддерживаемые токены шаблонов.
const (
	TokenClient   = "{{CLIENT}}"
	TokenCompany  = "{{COMPANY}}"
	TokenBid      = "{{BID}}"
	TokenTitle    = "{{TITLE}}"
	TokenLink     = "{{LINK}}"
	TokenSender   = "{{SENDER}}"
	TokenDeadline = "{{DEADLINE}}"
)

// Template - тема и тело письма с токенами.
type Template struct {
	Subject string
	Body    string
}

// Variables - значения для подстановки.
type Variables struct {
	Client     string
	Company    string
	BidTitle   string
	Link       string
	SenderName string
	Deadline   string
}

// Rendered - письмо после подстановки.
type Rendered struct {
	Subject string
	Body    string
}

// Render заменяет известные токены буквально. Неизвестные токены остаются как есть:
// это ошибка автора шаблона, а не причина не отправлять письмо.
func Render(tpl Template, vars Variables) Rendered {
	r := strings.NewReplacer(
		TokenClient, vars.Client,
		TokenCompany, vars.Company,
		TokenBid, vars.BidTitle,
		TokenTitle, vars.BidTitle,
		TokenLink, vars.Link,
		TokenSender, vars.SenderName,
		TokenDeadline, vars.Deadline,
	)
	return Rendered{
		Subject: r.Replace(tpl.Subject),
		Body:    r.Replace(tpl.Body),
	}
}
