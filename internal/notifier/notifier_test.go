package notifier

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
)

func change(name, date, newDate string) reconcile.Change {
	rec := event.Record{
		Name:      name,
		Type:      event.TypeFootball,
		Date:      date,
		Time:      "15:00",
		VenueName: "Estádio Municipal de Aveiro",
		Status:    event.StatusApproved,
		Football: &event.Football{
			Category: "Futebol Distrital",
			MatchURL: "https://www.zerozero.pt/jogo/2024-05-10-x/1",
		},
	}
	c := reconcile.Change{Type: reconcile.ChangePostponed, Previous: rec, NewDate: newDate}
	if newDate != "" {
		c.Type = reconcile.ChangeRescheduled
	}
	return c
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		name    string
		change  reconcile.Change
		want    []string
		notWant []string
	}{
		{
			name:   "postponed",
			change: change("SC Beira-Mar vs GD Estarreja", "2024-05-10", ""),
			want: []string{
				"<b>Jogo adiado</b>",
				"<b>SC Beira-Mar vs GD Estarreja</b>",
				"Futebol Distrital",
				"2024-05-10 às 15:00",
				"Estádio Municipal de Aveiro",
				`<a href="https://www.zerozero.pt/jogo/2024-05-10-x/1">`,
			},
			notWant: []string{"Nova data"},
		},
		{
			name:   "rescheduled",
			change: change("SC Espinho vs Feirense", "2024-05-11", "2024-05-15"),
			want:   []string{"Nova data: <b>2024-05-15</b>"},
		},
		{
			name:   "html in names is escaped",
			change: change("A&B <Sub-19> vs C", "2024-05-11", ""),
			want:   []string{"A&amp;B &lt;Sub-19&gt; vs C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatChange(tt.change)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("FormatChange() missing %q in:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("FormatChange() should not contain %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestFormatChange_UnknownTime(t *testing.T) {
	c := change("X vs Y", "2024-05-10", "")
	c.Previous.Time = event.TimeUnknown
	if got := FormatChange(c); strings.Contains(got, " às ") {
		t.Errorf("unknown time should be omitted:\n%s", got)
	}
}

func TestFormatSummary(t *testing.T) {
	if FormatSummary(nil) != "" {
		t.Error("FormatSummary(nil) should be empty")
	}
	got := FormatSummary([]reconcile.Change{
		change("A vs B", "2024-05-10", ""),
		change("C vs D", "2024-05-11", "2024-05-18"),
	})
	for _, w := range []string{"2 jogo(s) adiado(s)", "• 2024-05-10 A vs B", "• 2024-05-11 C vs D → 2024-05-18"} {
		if !strings.Contains(got, w) {
			t.Errorf("FormatSummary() missing %q in:\n%s", w, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("ááááá", 10); got != "ááááá" {
		t.Errorf("truncate() changed a short string: %q", got)
	}
	if got := truncate("áááááá", 5); got != "áá..." {
		t.Errorf("truncate() = %q, want %q", got, "áá...")
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	err := n.Notify(context.Background(), []reconcile.Change{
		change("A vs B", "2024-05-10", ""),
		change("C vs D", "2024-05-11", ""),
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "--- Message 1/2 ---") || !strings.Contains(out, "--- Message 2/2 ---") {
		t.Errorf("dry run output missing headers:\n%s", out)
	}
	if !strings.Contains(out, "(Length: ") {
		t.Errorf("dry run output missing length:\n%s", out)
	}
}

// fakeSender records sent messages
type fakeSender struct {
	sent   []tgbotapi.MessageConfig
	failAt int
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, fmt.Errorf("unexpected chattable %T", c)
	}
	if s.failAt > 0 && len(s.sent)+1 == s.failAt {
		return tgbotapi.Message{}, errors.New("Bad Request: chat not found")
	}
	s.sent = append(s.sent, msg)
	return tgbotapi.Message{MessageID: len(s.sent)}, nil
}

func TestTelegramNotifier_Notify(t *testing.T) {
	t.Run("one message per change", func(t *testing.T) {
		sender := &fakeSender{}
		n := NewTelegramNotifierWithSender(sender, -1001234, 0)

		err := n.Notify(context.Background(), []reconcile.Change{
			change("A vs B", "2024-05-10", ""),
			change("C vs D", "2024-05-11", "2024-05-18"),
		})
		if err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
		if len(sender.sent) != 2 {
			t.Fatalf("sent %d messages, want 2", len(sender.sent))
		}
		msg := sender.sent[0]
		if msg.ChatID != -1001234 || msg.ParseMode != tgbotapi.ModeHTML || !msg.DisableWebPagePreview {
			t.Errorf("message config = %+v", msg)
		}
	})

	t.Run("large batches become a digest", func(t *testing.T) {
		sender := &fakeSender{}
		n := NewTelegramNotifierWithSender(sender, 1, 0)

		var changes []reconcile.Change
		for i := 0; i < SummaryThreshold+1; i++ {
			changes = append(changes, change(fmt.Sprintf("Equipa %d vs Outra", i), "2024-05-10", ""))
		}
		if err := n.Notify(context.Background(), changes); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Text, "11 jogo(s)") {
			t.Errorf("sent = %+v", sender.sent)
		}
	})

	t.Run("send failure stops", func(t *testing.T) {
		sender := &fakeSender{failAt: 2}
		n := NewTelegramNotifierWithSender(sender, 1, 0)

		err := n.Notify(context.Background(), []reconcile.Change{
			change("A vs B", "2024-05-10", ""),
			change("C vs D", "2024-05-11", ""),
			change("E vs F", "2024-05-12", ""),
		})
		if err == nil || !strings.Contains(err.Error(), "sending message 2/3") {
			t.Errorf("Notify() error = %v", err)
		}
		if len(sender.sent) != 1 {
			t.Errorf("sent %d messages before failing, want 1", len(sender.sent))
		}
	})

	t.Run("nothing to send", func(t *testing.T) {
		sender := &fakeSender{}
		if err := NewTelegramNotifierWithSender(sender, 1, 0).Notify(context.Background(), nil); err != nil {
			t.Errorf("Notify(nil) error = %v", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("sent %d messages, want 0", len(sender.sent))
		}
	})
}

func TestNewTelegramNotifier_Validation(t *testing.T) {
	if _, err := NewTelegramNotifier("", 1); err == nil {
		t.Error("empty token should fail")
	}
	if _, err := NewTelegramNotifier("123:abc", 0); err == nil {
		t.Error("zero chat id should fail")
	}
}
