// Package mailer delivers transactional email. Sends are best-effort:
// callers log failures and never retry, and no send ever blocks or rolls
// back the ledger write that triggered it.
package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/lunafit/studio-booking/internal/queue"
)

// Mailer sends one rendered message. Implementations must be safe for
// concurrent use by the queue consumer.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTP delivers mail through a plain SMTP relay using the credentials
// from the environment.
type SMTP struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// NewSMTP builds an SMTP mailer. When host is empty the returned mailer
// is a logging no-op so local development works without a relay.
func NewSMTP(host, port, user, pass, from string) Mailer {
	if host == "" {
		return &logOnly{}
	}
	return &SMTP{Host: host, Port: port, User: user, Pass: pass, From: from}
}

// Send submits the message to the relay.
func (m *SMTP) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, []byte(msg))
}

// logOnly writes the message to the process log instead of sending it.
type logOnly struct{}

func (l *logOnly) Send(to, subject, body string) error {
	log.Printf("mailer: (dry run) to=%s subject=%q", to, subject)
	return nil
}

// Render produces the subject and body for a notification event. Kinds
// outside the known set produce an error so the consumer can reject the
// message instead of sending an empty email.
func Render(ev queue.NotificationEvent) (subject, body string, err error) {
	name := ev.RecipientName
	if name == "" {
		name = "there"
	}
	switch ev.Kind {
	case queue.KindPurchaseConfirmed:
		subject = "Your package is active"
		credits := fmt.Sprintf("%d credits", ev.Credits)
		if ev.Unlimited {
			credits = "unlimited sessions"
		}
		body = fmt.Sprintf("Hi %s,\n\nYour %q package is now active with %s, valid until %s.\n\nSee you in the studio!",
			name, ev.PackageTitle, credits, ev.ExpiresAt)
	case queue.KindPurchasePending:
		subject = "We received your order"
		body = fmt.Sprintf("Hi %s,\n\nYour order for %q (ref %s) is awaiting payment confirmation. We'll email you as soon as the gateway confirms it.",
			name, ev.PackageTitle, ev.CheckoutRef)
	case queue.KindBookingConfirmed:
		subject = "Booking confirmed: " + ev.ClassTitle
		body = fmt.Sprintf("Hi %s,\n\nYou're booked for %q with %s on %s.",
			name, ev.ClassTitle, ev.InstructorName, ev.StartsAt)
	case queue.KindPackageExpiring:
		subject = "Your package expires soon"
		body = fmt.Sprintf("Hi %s,\n\nYour %q package expires on %s. Book your remaining sessions before then!",
			name, ev.PackageTitle, ev.ExpiresAt)
	case queue.KindClassReminder:
		subject = "Reminder: " + ev.ClassTitle + " tomorrow"
		body = fmt.Sprintf("Hi %s,\n\nA quick reminder that you're booked for %q with %s on %s.",
			name, ev.ClassTitle, ev.InstructorName, ev.StartsAt)
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", ev.Kind)
	}
	return subject, body, nil
}
