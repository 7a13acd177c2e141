package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
)

// Значения по умолчанию для пустых настроек.
const (
	DefaultSenderName      = "Your consultancy"
	DefaultReminderSubject = "Action required: bid {{BID}}"
	DefaultReminderBody    = "Hello {{CLIENT}}, the bid {{BID}} closes on {{DEADLINE}}. Please tell us whether you want to participate."
	DefaultSummarySubject  = "Summary: {{BID}}"
	DefaultSummaryBody     = "Hello {{CLIENT}}, we found a bid opportunity for your company:\n\n{{BID}}"
)

// Message - готовое к отправке письмо.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

var reminderLayout = template.Must(template.New("reminder").Parse(
	`<div style="font-family: Arial, sans-serif; color: #333; max-width: 600px;">` +
		`<p style="font-size: 16px; white-space: pre-wrap;">{{.Body}}</p>` +
		`<div style="margin: 30px 0;"><a href="{{.DecisionURL}}" style="background-color: #2563EB; color: white; padding: 14px 24px; text-decoration: none; border-radius: 6px; font-weight: bold; display: inline-block;">DECIDE NOW</a></div>` +
		`{{template "documents" .}}` +
		`<p style="font-size: 12px; color: #888; margin-top: 20px;">Automatic reminder sent on behalf of {{.Sender}}.</p>` +
		`</div>`))

var summaryLayout = template.Must(template.New("summary").Parse(
	`<div style="font-family: Helvetica, Arial, sans-serif; color: #333; line-height: 1.6; max-width: 600px; margin: 0 auto;">` +
		`<h2 style="color: #002A54; margin: 0;">New opportunity</h2>` +
		`<p style="font-size: 16px; white-space: pre-wrap;">{{.Body}}</p>` +
		`{{template "documents" .}}` +
		`<p style="font-size: 12px; color: #64748b; text-align: center;">Sent by <strong>{{.Sender}}</strong></p>` +
		`</div>`))

const documentsBlock = `{{define "documents"}}` +
	`{{if .Attachments}}<div style="margin: 25px 0;"><p style="font-weight: bold;">Documents:</p><ul>` +
	`{{range .Attachments}}<li><a href="{{.URL}}">Download: {{.Name}}</a></li>{{end}}</ul></div>` +
	`{{else if .LinkDocs}}<div style="margin: 30px 0;"><a href="{{.LinkDocs}}">Open bid documents</a></div>` +
	`{{else}}<p style="color: #ef4444; font-style: italic;">(No documents attached.)</p>{{end}}` +
	`{{end}}`

func init() {
	template.Must(reminderLayout.Parse(documentsBlock))
	template.Must(summaryLayout.Parse(documentsBlock))
}

type layoutData struct {
	Body        string
	Sender      string
	DecisionURL string
	Attachments []models.Attachment
	LinkDocs    string
}

// SenderName возвращает отображаемое имя отправителя.
func SenderName(settings models.Settings) string {
	if name := strings.TrimSpace(settings.SenderName); name != "" {
		return name
	}
	return DefaultSenderName
}

// DecisionURL строит ссылку на портал, где клиент принимает решение.
func DecisionURL(portalURL string, client models.Client, bidID string) string {
	base := strings.TrimRight(portalURL, "/")
	if client.AccessToken != nil && *client.AccessToken != "" {
		return fmt.Sprintf("%s/portal/%s?id=%s", base, url.PathEscape(*client.AccessToken), url.QueryEscape(bidID))
	}
	return fmt.Sprintf("%s/portal?id=%s", base, url.QueryEscape(bidID))
}

// BuildReminder собирает письмо-напоминание о сроке заявки.
func BuildReminder(settings models.Settings, client models.Client, bid models.Bid, portalURL string) (Message, error) {
	decisionURL := DecisionURL(portalURL, client, bid.ID)
	tpl := Template{
		Subject: orDefault(settings.ReminderSubject, DefaultReminderSubject),
		Body:    orDefault(settings.ReminderBody, DefaultReminderBody),
	}
	rendered := Render(tpl, variables(settings, client, bid, decisionURL))

	data := layoutData{
		Body:        rendered.Body,
		Sender:      SenderName(settings),
		DecisionURL: decisionURL,
		Attachments: bid.Attachments,
		LinkDocs:    bid.LinkDocs,
	}
	return build(reminderLayout, client.Email, rendered.Subject, data)
}

// BuildSummary собирает письмо-резюме, которое консультант отправляет вручную.
func BuildSummary(settings models.Settings, client models.Client, bid models.Bid) (Message, error) {
	link := ""
	if len(bid.Attachments) == 0 {
		link = bid.LinkDocs
	}
	tpl := Template{
		Subject: orDefault(settings.SummarySubject, DefaultSummarySubject),
		Body:    orDefault(settings.SummaryBody, DefaultSummaryBody),
	}
	rendered := Render(tpl, variables(settings, client, bid, link))

	data := layoutData{
		Body:        rendered.Body,
		Sender:      SenderName(settings),
		Attachments: bid.Attachments,
		LinkDocs:    bid.LinkDocs,
	}
	return build(summaryLayout, client.Email, rendered.Subject, data)
}

func build(layout *template.Template, to, subject string, data layoutData) (Message, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s layout: %w", layout.Name(), err)
	}
	return Message{
		To:      to,
		Subject: subject,
		HTML:    buf.String(),
		Text:    HTMLToText(buf.String()),
	}, nil
}

func variables(settings models.Settings, client models.Client, bid models.Bid, link string) Variables {
	return Variables{
		Client:     client.Name,
		Company:    client.Company,
		BidTitle:   bid.Title,
		Link:       link,
		SenderName: SenderName(settings),
		Deadline:   bid.Deadline.Format(time.DateOnly),
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
