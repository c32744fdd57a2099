// Package notify mails a report when a script submitted to the server fails.
package notify

import (
	"fmt"
	"strings"
	"time"

	"declang/pkg/config"

	"gopkg.in/gomail.v2"
)

type Report struct {
	Source string
	Error  string
	Kind   string
	Remote string
	Time   time.Time
}

type Notifier interface {
	Notify(r Report) error
}

// Nop drops every report.
type Nop struct{}

func (Nop) Notify(Report) error { return nil }

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type MailNotifier struct {
	from   string
	to     string
	sender Sender
}

func NewMailNotifier(cfg config.SMTP) *MailNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	return &MailNotifier{from: cfg.From, to: cfg.To, sender: d}
}

// FromConfig returns a mail notifier when SMTP is configured, Nop otherwise.
func FromConfig(cfg config.SMTP) Notifier {
	if !cfg.Enabled() {
		return Nop{}
	}
	return NewMailNotifier(cfg)
}

func (n *MailNotifier) Notify(r Report) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("declang run failed: %s", r.Kind))
	m.SetBody("text/plain", Body(r))

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("notify: send report: %w", err)
	}
	return nil
}

// Body renders the plain-text report.
func Body(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Time:   %s\n", r.Time.UTC().Format(time.RFC3339))
	if r.Remote != "" {
		fmt.Fprintf(&b, "Remote: %s\n", r.Remote)
	}
	fmt.Fprintf(&b, "Kind:   %s\n", r.Kind)
	fmt.Fprintf(&b, "Error:  %s\n\n", r.Error)
	b.WriteString("Script:\n")
	for _, line := range strings.Split(r.Source, "\n") {
		b.WriteString("    " + line + "\n")
	}
	return b.String()
}
