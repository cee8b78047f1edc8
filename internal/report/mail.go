package report

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("odpn-automation/internal/report")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

func (c SmtpConfig) Configured() bool {
	return c.Server != "" && c.EmailAddress != ""
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

func sendMail(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

// Mailer sends finished reports to the operators.
type Mailer struct {
	config SmtpConfig
	send   sendFunc
}

func NewMailer(config SmtpConfig) Mailer {
	if config.Port == 0 {
		config.Port = 587
	}
	return Mailer{config: config, send: sendMail}
}

func (m Mailer) message(r Report, to []string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("ODPN <%s>", m.config.EmailAddress)
	mail.To = to

	status := "OK"
	if !r.OK() {
		status = fmt.Sprintf("błędy: %d", len(r.Failures))
	}
	subject := fmt.Sprintf("ODPN %s", r.Action)
	if r.File != "" {
		subject += " " + r.File
	}
	mail.Subject = fmt.Sprintf("%s - %s", subject, status)
	mail.Text = []byte(r.String())
	return mail
}

func (m Mailer) Send(ctx context.Context, r Report, to []string) error {
	_, span := tracer.Start(ctx, "Mailer.Send")
	defer span.End()

	if len(to) == 0 {
		return nil
	}

	mail := m.message(r, to)
	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := m.send(
		mail,
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
