package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/go-entra-users/pkg/mailer/templates"
)

// Outcome tells the consumer what to do with the delivery.
type Outcome int

const (
	Ack     Outcome = iota
	Drop            // nack without requeue
	Requeue         // nack with requeue
)

var ErrNoRecipient = errors.New("email job has no recipient")

// Handle decodes one queued job, renders it when it names a template and sends it.
// Bad payloads and render failures are dropped; send failures are requeued.
func Handle(ctx context.Context, body []byte, sender Sender) (Outcome, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return Drop, fmt.Errorf("bad message: %w", err)
	}
	if strings.TrimSpace(job.To) == "" {
		return Drop, ErrNoRecipient
	}
	EnsureRecipient(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Templated() {
		s, t, h, err := mailtpl.Render(strings.ToLower(job.Template), job.Data)
		if err != nil {
			return Drop, fmt.Errorf("render %s: %w", job.Template, err)
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sender.Send(c, job.To, strings.TrimSpace(subject), text, html); err != nil {
		return Requeue, fmt.Errorf("send failed: %w", err)
	}
	return Ack, nil
}

// EnsureRecipient fills Email and RecipientEmail in Data from To when absent.
func EnsureRecipient(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
