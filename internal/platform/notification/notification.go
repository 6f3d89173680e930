// Package notification delivers best-effort emails about appointment and
// prescription events. Messages are queued after the mutation commits and a
// dispatcher goroutine sends them; a delivery failure never fails the request
// that caused it.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Template ids for the built-in messages.
const (
	TemplateAppointmentCreated   = "consulta-agendada"
	TemplateAppointmentCancelled = "consulta-cancelada"
	TemplatePrescriptionIssued   = "receita-emitida"
)

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine holds the registered templates and renders them.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates an engine with the built-in templates registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAppointmentCreated,
			Subject: "Consulta agendada para {{data}}",
			Body:    "Olá {{paciente}}, sua consulta com Dr(a). {{medico}} foi agendada para {{data}}.",
		},
		{
			ID:      TemplateAppointmentCancelled,
			Subject: "Consulta de {{data}} cancelada",
			Body:    "Olá {{paciente}}, sua consulta com Dr(a). {{medico}} marcada para {{data}} foi cancelada.",
		},
		{
			ID:      TemplatePrescriptionIssued,
			Subject: "Nova receita emitida",
			Body:    "Olá {{paciente}}, Dr(a). {{medico}} emitiu uma receita de {{medicamento}} para você.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render substitutes {{key}} placeholders from data. Placeholders without a
// matching key are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// EmailSender delivers a rendered message.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// LogSender writes messages to the structured log instead of delivering
// them. It is the default sender in development.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("email")
	return nil
}

// EmailCall records one call to a MockEmailSender.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Message is one queued notification.
type Message struct {
	TemplateID string
	Recipient  string
	Data       map[string]string
}

// Notifier queues messages and dispatches them asynchronously.
type Notifier struct {
	engine *TemplateEngine
	sender EmailSender
	logger zerolog.Logger
	queue  chan Message
	done   chan struct{}
}

// NewNotifier creates a Notifier with the given queue capacity. Start must
// be called before messages are delivered.
func NewNotifier(engine *TemplateEngine, sender EmailSender, logger zerolog.Logger, queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Notifier{
		engine: engine,
		sender: sender,
		logger: logger,
		queue:  make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
}

// Start runs the dispatcher until ctx is cancelled, then drains the queue
// and closes. Call it in its own goroutine.
func (n *Notifier) Start(ctx context.Context) {
	defer close(n.done)
	for {
		select {
		case msg := <-n.queue:
			n.deliver(msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-n.queue:
					n.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until the dispatcher has stopped.
func (n *Notifier) Wait() { <-n.done }

// Enqueue queues a message without blocking. When the queue is full the
// message is dropped with a warning; notifications are best-effort.
func (n *Notifier) Enqueue(msg Message) {
	select {
	case n.queue <- msg:
	default:
		n.logger.Warn().
			Str("template", msg.TemplateID).
			Str("recipient", msg.Recipient).
			Msg("notification queue full, message dropped")
	}
}

func (n *Notifier) deliver(msg Message) {
	subject, body, err := n.engine.Render(msg.TemplateID, msg.Data)
	if err != nil {
		n.logger.Error().Err(err).
			Str("template", msg.TemplateID).
			Msg("notification render failed")
		return
	}
	if err := n.sender.SendEmail(context.Background(), msg.Recipient, subject, body); err != nil {
		n.logger.Error().Err(err).
			Str("template", msg.TemplateID).
			Str("recipient", msg.Recipient).
			Msg("notification delivery failed")
	}
}
