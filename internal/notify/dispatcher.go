package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/monitoring"

	gomail "github.com/wneessen/go-mail"
)

// Значения по умолчанию для SMTP, если консультант их не указал.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// ConfigError - настройки консультанта не позволяют отправить письмо.
// Автоматически не повторяется: нужен ремонт настроек.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "mail config error: " + e.Reason
}

// ConfigReason позволяет классифицировать ошибку без импорта пакета notify.
func (e *ConfigError) ConfigReason() string {
	return e.Reason
}

// TransportError - сбой сети или отказ почтового сервера. Можно повторить.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "mail transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsConfigError сообщает, является ли err ошибкой настроек.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// Server - параметры подключения к SMTP консультанта.
type Server struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Envelope - письмо вместе с отправителем.
type Envelope struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	HTML        string
	Text        string
}

// Transport отправляет одно письмо через указанный сервер.
type Transport interface {
	Send(ctx context.Context, server Server, env Envelope) error
}

// Dispatcher отправляет письма через почтовый сервер консультанта.
type Dispatcher struct {
	transport Transport
}

// NewDispatcher создаёт диспетчер поверх транспорта.
func NewDispatcher(transport Transport) *Dispatcher {
	return &Dispatcher{transport: transport}
}

// Send проверяет настройки и отправляет письмо. Возвращает *ConfigError или *TransportError.
func (d *Dispatcher) Send(ctx context.Context, settings *models.Settings, purpose string, msg Message) error {
	err := d.send(ctx, settings, msg)
	monitoring.RecordDispatch(purpose, err)
	return err
}

func (d *Dispatcher) send(ctx context.Context, settings *models.Settings, msg Message) error {
	server, err := ServerFromSettings(settings)
	if err != nil {
		return err
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return &ConfigError{Reason: fmt.Sprintf("invalid recipient %q", msg.To)}
	}

	env := Envelope{
		FromName:    SenderName(*settings),
		FromAddress: settings.SMTPUser,
		To:          msg.To,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		Text:        msg.Text,
	}
	if err := d.transport.Send(ctx, server, env); err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return cfgErr
		}
		var trErr *TransportError
		if errors.As(err, &trErr) {
			return trErr
		}
		return &TransportError{Err: err}
	}
	return nil
}

// ServerFromSettings проверяет учётные данные и подставляет значения по умолчанию.
func ServerFromSettings(settings *models.Settings) (Server, error) {
	if settings == nil {
		return Server{}, &ConfigError{Reason: "no mail settings"}
	}
	if strings.TrimSpace(settings.SMTPUser) == "" || settings.SMTPPass == "" {
		return Server{}, &ConfigError{Reason: "smtp user and password are required"}
	}
	if _, err := mail.ParseAddress(settings.SMTPUser); err != nil {
		return Server{}, &ConfigError{Reason: fmt.Sprintf("smtp user %q is not an e-mail address", settings.SMTPUser)}
	}
	server := Server{
		Host:     strings.TrimSpace(settings.SMTPHost),
		Port:     settings.SMTPPort,
		Username: settings.SMTPUser,
		Password: settings.SMTPPass,
	}
	if server.Host == "" {
		server.Host = DefaultSMTPHost
	}
	if server.Port == 0 {
		server.Port = DefaultSMTPPort
	}
	if server.Port < 0 || server.Port > 65535 {
		return Server{}, &ConfigError{Reason: fmt.Sprintf("invalid smtp port %d", server.Port)}
	}
	return server, nil
}

// SMTPTransport открывает новое SMTP-соединение на каждое письмо.
type SMTPTransport struct {
	Timeout time.Duration
}

// Send реализует Transport через go-mail.
func (t SMTPTransport) Send(ctx context.Context, server Server, env Envelope) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(env.FromName, env.FromAddress); err != nil {
		return &ConfigError{Reason: fmt.Sprintf("invalid sender: %v", err)}
	}
	if err := msg.To(env.To); err != nil {
		return &ConfigError{Reason: fmt.Sprintf("invalid recipient: %v", err)}
	}
	msg.Subject(env.Subject)
	// HTML идёт последней альтернативой: клиенты выбирают последнюю поддерживаемую.
	if env.Text != "" {
		msg.SetBodyString(gomail.TypeTextPlain, env.Text)
		msg.AddAlternativeString(gomail.TypeTextHTML, env.HTML)
	} else {
		msg.SetBodyString(gomail.TypeTextHTML, env.HTML)
	}

	opts := []gomail.Option{
		gomail.WithPort(server.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(server.Username),
		gomail.WithPassword(server.Password),
	}
	if server.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if t.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(t.Timeout))
	}

	client, err := gomail.NewClient(server.Host, opts...)
	if err != nil {
		return &ConfigError{Reason: fmt.Sprintf("smtp client: %v", err)}
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}
