package notify

import (
	"context"
	"time"

	"github.com/oksasatya/go-entra-users/internal/domain/entity"
	"github.com/oksasatya/go-entra-users/pkg/mailer"
	mailtpl "github.com/oksasatya/go-entra-users/pkg/mailer/templates"
)

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// WelcomePublisher queues a welcome mail for every created user.
type WelcomePublisher struct {
	pub        JSONPublisher
	appName    string
	supportURL string
	loginURL   string
}

func NewWelcomePublisher(pub JSONPublisher, appName, supportURL, loginURL string) *WelcomePublisher {
	return &WelcomePublisher{pub: pub, appName: appName, supportURL: supportURL, loginURL: loginURL}
}

func (w *WelcomePublisher) UserCreated(ctx context.Context, u *entity.User) error {
	job := mailer.NewTemplateJob(u.Email(), mailtpl.Welcome, mailtpl.NewWelcomeData(w.appName, u.Name(), u.Email(),
		mailtpl.WithTime(u.CreatedAt()),
		mailtpl.WithSupportURL(w.supportURL),
		mailtpl.WithLoginURL(w.loginURL),
	))
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return w.pub.PublishJSON(c, job)
}
