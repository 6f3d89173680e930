package notification

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTemplateEngineRegisterAndRender(t *testing.T) {
	eng := NewTemplateEngine()
	eng.Register(Template{
		ID:      "test-tpl",
		Subject: "Olá {{nome}}",
		Body:    "Prezado {{nome}}, seu código é {{codigo}}.",
	})

	subject, body, err := eng.Render("test-tpl", map[string]string{
		"nome":   "Alice",
		"codigo": "1234",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Olá Alice" {
		t.Errorf("subject = %q", subject)
	}
	if body != "Prezado Alice, seu código é 1234." {
		t.Errorf("body = %q", body)
	}
}

func TestTemplateEngineRenderMissing(t *testing.T) {
	if _, _, err := NewTemplateEngine().Render("nonexistent", nil); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestTemplateEngineBuiltIn(t *testing.T) {
	eng := NewTemplateEngine()
	for _, id := range []string{
		TemplateAppointmentCreated,
		TemplateAppointmentCancelled,
		TemplatePrescriptionIssued,
	} {
		if _, _, err := eng.Render(id, nil); err != nil {
			t.Errorf("built-in template %q missing: %v", id, err)
		}
	}
}

func TestTemplateEngineLeavesUnknownPlaceholders(t *testing.T) {
	eng := NewTemplateEngine()
	subject, _, err := eng.Render(TemplateAppointmentCreated, map[string]string{"paciente": "Bob"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Consulta agendada para {{data}}" {
		t.Errorf("subject = %q, want placeholder preserved", subject)
	}
}

func waitForCalls(t *testing.T, sender *MockEmailSender, want int) []EmailCall {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		calls := sender.Calls()
		if len(calls) >= want {
			return calls
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d calls, have %d", want, len(sender.Calls()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNotifierDeliversQueuedMessages(t *testing.T) {
	sender := &MockEmailSender{}
	n := NewNotifier(NewTemplateEngine(), sender, zerolog.Nop(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	go n.Start(ctx)

	n.Enqueue(Message{
		TemplateID: TemplateAppointmentCreated,
		Recipient:  "paciente@example.com",
		Data: map[string]string{
			"paciente": "Maria",
			"medico":   "Silva",
			"data":     "2026-09-10 14:00",
		},
	})

	calls := waitForCalls(t, sender, 1)
	cancel()
	n.Wait()

	if calls[0].To != "paciente@example.com" {
		t.Errorf("recipient = %q", calls[0].To)
	}
	if calls[0].Subject != "Consulta agendada para 2026-09-10 14:00" {
		t.Errorf("subject = %q", calls[0].Subject)
	}
}

func TestNotifierDrainsQueueOnShutdown(t *testing.T) {
	sender := &MockEmailSender{}
	n := NewNotifier(NewTemplateEngine(), sender, zerolog.Nop(), 8)

	for i := 0; i < 3; i++ {
		n.Enqueue(Message{
			TemplateID: TemplatePrescriptionIssued,
			Recipient:  "paciente@example.com",
			Data:       map[string]string{"paciente": "Maria"},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go n.Start(ctx)
	n.Wait()

	if got := len(sender.Calls()); got != 3 {
		t.Errorf("delivered %d messages on drain, want 3", got)
	}
}

func TestNotifierDropsWhenQueueFull(t *testing.T) {
	sender := &MockEmailSender{}
	n := NewNotifier(NewTemplateEngine(), sender, zerolog.Nop(), 1)

	// Dispatcher not started: only one message fits, the second is dropped.
	n.Enqueue(Message{TemplateID: TemplateAppointmentCreated, Recipient: "a@example.com"})
	n.Enqueue(Message{TemplateID: TemplateAppointmentCreated, Recipient: "b@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go n.Start(ctx)
	n.Wait()

	if got := len(sender.Calls()); got != 1 {
		t.Errorf("delivered %d messages, want 1", got)
	}
}

func TestNotifierDeliveryFailureDoesNotStopDispatcher(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	n := NewNotifier(NewTemplateEngine(), sender, zerolog.Nop(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	go n.Start(ctx)

	n.Enqueue(Message{TemplateID: TemplateAppointmentCreated, Recipient: "a@example.com"})
	n.Enqueue(Message{TemplateID: TemplateAppointmentCancelled, Recipient: "a@example.com"})

	waitForCalls(t, sender, 2)
	cancel()
	n.Wait()
}

func TestLogSenderNeverFails(t *testing.T) {
	s := &LogSender{Logger: zerolog.Nop()}
	if err := s.SendEmail(context.Background(), "a@example.com", "s", "b"); err != nil {
		t.Errorf("LogSender returned error: %v", err)
	}
}
