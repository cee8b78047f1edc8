package report

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	started := time.Date(2024, 9, 12, 10, 0, 0, 0, time.UTC)
	return Report{
		Action:   "submit",
		File:     "belchatow.csv",
		Total:    5,
		Sent:     3,
		Started:  started,
		Finished: started.Add(90 * time.Second),
	}
}

func TestRenderOK(t *testing.T) {
	r := sampleReport()
	out := r.String()
	require.Contains(t, out, "submit belchatow.csv: wierszy 5, wysłano 3, pominięto 0, błędów 0, czas 1m30s")
	require.Contains(t, out, "Wszystkie wiersze OK!")
	require.True(t, r.OK())
}

func TestRenderFailures(t *testing.T) {
	r := sampleReport()
	r.Fail(7, "09", "Nieznana kategoria: '13.'")
	r.Fail(2, "09", "Błąd wysyłania")
	r.Fail(0, "10", "Błąd miesiąca 10: no capture")

	require.False(t, r.OK())
	sorted := r.Sorted()
	require.Equal(t, []int{0, 2, 7}, []int{sorted[0].Row, sorted[1].Row, sorted[2].Row})

	out := r.String()
	require.Contains(t, out, "Lista błędów (3):")
	require.Contains(t, out, "│ Wiersz │ Miesiąc │ Błąd")
	require.NotContains(t, out, "WIERSZ")
	require.Contains(t, out, "Nieznana kategoria: '13.'")
	require.NotContains(t, out, "Wszystkie wiersze OK!")

	// month wide failure comes first and has no row number
	lines := strings.Split(out, "\n")
	var first string
	for _, line := range lines {
		if strings.Contains(line, "Błąd miesiąca") || strings.Contains(line, "Błąd wysyłania") {
			first = line
			break
		}
	}
	require.Contains(t, first, "Błąd miesiąca")
	require.Contains(t, first, "-")
}

func TestSummaryDryRunAndDeleted(t *testing.T) {
	r := Report{Action: "clear", Deleted: 4, DryRun: true}
	require.Equal(t, "clear (próba): wierszy 0, wysłano 0, pominięto 0, usunięto 4, błędów 0", r.Summary())
}

type sentMail struct {
	mail *email.Email
	addr string
	auth smtp.Auth
}

func TestMailerSend(t *testing.T) {
	var sent []sentMail
	m := NewMailer(SmtpConfig{Server: "smtp.example.pl", EmailAddress: "bot@example.pl", Password: "x"})
	m.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		sent = append(sent, sentMail{mail: mail, addr: addr, auth: auth})
		return nil
	}

	r := sampleReport()
	r.Fail(3, "09", "Błąd wysyłania")
	err := m.Send(context.Background(), r, []string{"ksiegowosc@example.pl"})
	require.NoError(t, err)

	require.Len(t, sent, 1)
	require.Equal(t, "smtp.example.pl:587", sent[0].addr)
	require.NotNil(t, sent[0].auth)
	require.Equal(t, "ODPN submit belchatow.csv - błędy: 1", sent[0].mail.Subject)
	require.Equal(t, "ODPN <bot@example.pl>", sent[0].mail.From)
	require.Contains(t, string(sent[0].mail.Text), "Błąd wysyłania")
}

func TestMailerFallsBackWithoutAuth(t *testing.T) {
	var auths []smtp.Auth
	m := NewMailer(SmtpConfig{Server: "relay.local", Port: 25, EmailAddress: "bot@example.pl"})
	m.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
		auths = append(auths, auth)
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	}

	err := m.Send(context.Background(), sampleReport(), []string{"a@example.pl"})
	require.NoError(t, err)
	require.Len(t, auths, 2)
	require.Nil(t, auths[1])
}

func TestMailerNoRecipients(t *testing.T) {
	m := NewMailer(SmtpConfig{Server: "relay.local", EmailAddress: "bot@example.pl"})
	m.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("should not send")
		return nil
	}
	require.NoError(t, m.Send(context.Background(), sampleReport(), nil))
	require.False(t, SmtpConfig{}.Configured())
}
