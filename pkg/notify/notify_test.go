package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"declang/pkg/config"

	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func testReport() Report {
	return Report{
		Source: "declare x = 1 / 0",
		Error:  "1:15: division by zero",
		Kind:   "DIVISION_BY_ZERO",
		Remote: "10.0.0.1:5000",
		Time:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMailNotifier(t *testing.T) {
	fake := &fakeSender{}
	n := &MailNotifier{from: "bot@example.com", to: "ops@example.com", sender: fake}

	if err := n.Notify(testReport()); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 message, got=%d", len(fake.sent))
	}
	m := fake.sent[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "ops@example.com" {
		t.Fatalf("To wrong. got=%v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "declang run failed: DIVISION_BY_ZERO" {
		t.Fatalf("Subject wrong. got=%v", got)
	}
}

func TestMailNotifierError(t *testing.T) {
	n := &MailNotifier{sender: &fakeSender{err: errors.New("connection refused")}}
	if err := n.Notify(testReport()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected send error, got=%v", err)
	}
}

func TestBody(t *testing.T) {
	body := Body(testReport())
	for _, want := range []string{
		"Time:   2026-01-02T03:04:05Z",
		"Remote: 10.0.0.1:5000",
		"Error:  1:15: division by zero",
		"    declare x = 1 / 0",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFromConfig(t *testing.T) {
	if _, ok := FromConfig(config.SMTP{}).(Nop); !ok {
		t.Fatal("empty SMTP config should give Nop")
	}
	n := FromConfig(config.SMTP{Host: "smtp.example.com", Port: 587, To: "ops@example.com"})
	if _, ok := n.(*MailNotifier); !ok {
		t.Fatalf("expected *MailNotifier, got=%T", n)
	}
}
