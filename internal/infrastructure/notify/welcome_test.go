package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/pkg/mailer"
)

type capturePublisher struct {
	bodies []any
	err    error
}

func (c *capturePublisher) PublishJSON(_ context.Context, body any) error {
	c.bodies = append(c.bodies, body)
	return c.err
}

func TestWelcomePublisher_UserCreated(t *testing.T) {
	pub := &capturePublisher{}
	w := NewWelcomePublisher(pub, "Usuarios", "https://support.example.com", "https://app.example.com")
	u := entity.RestoreUser(1, "Ana", "ana@example.com", "hash", time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, w.UserCreated(context.Background(), u))
	require.Len(t, pub.bodies, 1)

	job, ok := pub.bodies[0].(mailer.EmailJob)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", job.To)
	assert.Equal(t, "welcome", job.Template)
	assert.Equal(t, "Ana", job.Data["Name"])
	assert.Equal(t, "Usuarios", job.Data["AppName"])
	assert.Equal(t, "https://app.example.com", job.Data["LoginURL"])
	assert.Equal(t, "01 June 2024, 08:00", job.Data["Time"])
}

func TestWelcomePublisher_PropagatesErrors(t *testing.T) {
	pub := &capturePublisher{err: errors.New("channel closed")}
	w := NewWelcomePublisher(pub, "Usuarios", "", "")
	u := entity.RestoreUser(1, "Ana", "ana@example.com", "hash", time.Now())

	assert.Error(t, w.UserCreated(context.Background(), u))
}
