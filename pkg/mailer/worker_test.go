package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/go-entra-users/pkg/mailer/templates"
)

type fakeSender struct {
	err   error
	calls int

	to, subject, text, html string
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	f.calls++
	f.to, f.subject, f.text, f.html = to, subject, text, html
	return f.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandle_WelcomeTemplate(t *testing.T) {
	s := &fakeSender{}
	job := EmailJob{
		To:       "ana@example.com",
		Template: mailtpl.Welcome,
		Data: mailtpl.NewWelcomeData("Usuarios", "Ana", "ana@example.com",
			mailtpl.WithTime(time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)),
			mailtpl.WithSupportURL("https://support.example.com")),
	}

	out, err := Handle(context.Background(), mustJSON(t, job), s)
	require.NoError(t, err)
	assert.Equal(t, Ack, out)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, "ana@example.com", s.to)
	assert.Equal(t, "Bem-vindo ao Usuarios, Ana", s.subject)
	assert.Contains(t, s.text, "01 June 2024, 12:30")
	assert.Contains(t, s.html, "https://support.example.com")
}

func TestHandle_PlainMessage(t *testing.T) {
	s := &fakeSender{}
	out, err := Handle(context.Background(), mustJSON(t, EmailJob{To: "b@example.com", Subject: "Oi", Text: "corpo"}), s)
	require.NoError(t, err)
	assert.Equal(t, Ack, out)
	assert.Equal(t, "Oi", s.subject)
	assert.Equal(t, "corpo", s.text)
}

func TestHandle_BadPayloadIsDropped(t *testing.T) {
	s := &fakeSender{}
	out, err := Handle(context.Background(), []byte("{not json"), s)
	assert.Error(t, err)
	assert.Equal(t, Drop, out)
	assert.Zero(t, s.calls)

	out, err = Handle(context.Background(), mustJSON(t, EmailJob{Subject: "x"}), s)
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Equal(t, Drop, out)
}

func TestHandle_UnknownTemplateIsDropped(t *testing.T) {
	s := &fakeSender{}
	out, err := Handle(context.Background(), mustJSON(t, EmailJob{To: "a@example.com", Template: "nope"}), s)
	assert.Error(t, err)
	assert.Equal(t, Drop, out)
	assert.Zero(t, s.calls)
}

func TestHandle_SendFailureIsRequeued(t *testing.T) {
	s := &fakeSender{err: errors.New("mailgun down")}
	out, err := Handle(context.Background(), mustJSON(t, EmailJob{To: "a@example.com", Text: "x"}), s)
	assert.Error(t, err)
	assert.Equal(t, Requeue, out)
}

func TestEnsureRecipient(t *testing.T) {
	job := EmailJob{To: "a@example.com"}
	EnsureRecipient(&job)
	assert.Equal(t, "a@example.com", job.Data["Email"])
	assert.Equal(t, "a@example.com", job.Data["RecipientEmail"])

	job = EmailJob{To: "a@example.com", Data: map[string]any{"Email": "other@example.com"}}
	EnsureRecipient(&job)
	assert.Equal(t, "other@example.com", job.Data["Email"])
}
