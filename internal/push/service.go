package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/smartpos/smartpos-backend/pkg/db/models"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/metrics"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
	"github.com/smartpos/smartpos-backend/pkg/webpush"
)

// ReminderURL is where a tapped reminder lands in the client.
const ReminderURL = "/dashboard"

var errPushDisabled = pkgerrors.New(pkgerrors.CodeDependency, "push notifications are not configured")

type notifier interface {
	PublicKey() string
	Send(ctx context.Context, target webpush.Target, payload []byte) error
}

type store interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) (bool, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.PushSubscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	PublicKey() (string, error)
	Subscribe(ctx context.Context, actor visibility.Actor, input SubscribeInput) (bool, error)
	SendReminder(ctx context.Context, businessID uuid.UUID, input ReminderInput) (ReminderResult, error)
}

type SubscribeInput struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

type ReminderInput struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ReminderResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Deleted int `json:"deleted"`
}

type reminderPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type service struct {
	repo     store
	notifier notifier
	metrics  *metrics.PushMetrics
	logg     *logger.Logger
}

// NewService wires the push service. notifier may be nil when VAPID keys are
// not configured; subscribe still works but sending is rejected.
func NewService(repo store, n notifier, m *metrics.PushMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("push repository required")
	}
	return &service{repo: repo, notifier: n, metrics: m, logg: logg}, nil
}

func (s *service) PublicKey() (string, error) {
	if s.notifier == nil {
		return "", errPushDisabled
	}
	return s.notifier.PublicKey(), nil
}

func (s *service) Subscribe(ctx context.Context, actor visibility.Actor, input SubscribeInput) (bool, error) {
	if actor.BusinessID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user has no business")
	}
	endpoint := strings.TrimSpace(input.Endpoint)
	p256dh := strings.TrimSpace(input.Keys.P256dh)
	auth := strings.TrimSpace(input.Keys.Auth)
	if endpoint == "" || p256dh == "" || auth == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription payload")
	}

	businessID := actor.BusinessID
	created, err := s.repo.Upsert(ctx, &models.PushSubscription{
		UserID:     actor.UserID,
		BusinessID: &businessID,
		Endpoint:   endpoint,
		P256dh:     p256dh,
		Auth:       auth,
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store push subscription")
	}
	return created, nil
}

// SendReminder fans a reminder out to every device of the business. Devices
// the push service reports as gone are deleted. Individual delivery failures
// are counted, not returned.
func (s *service) SendReminder(ctx context.Context, businessID uuid.UUID, input ReminderInput) (ReminderResult, error) {
	var result ReminderResult
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}

	subs, err := s.repo.ListByBusiness(ctx, businessID)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list push subscriptions")
	}
	if len(subs) == 0 {
		return result, nil
	}
	if s.notifier == nil {
		return result, errPushDisabled
	}

	payload, err := json.Marshal(reminderPayload{Title: title, Body: message, URL: ReminderURL})
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode reminder")
	}

	var failures error
	for _, sub := range subs {
		err := s.notifier.Send(ctx, webpush.Target{Endpoint: sub.Endpoint, P256dh: sub.P256dh, Auth: sub.Auth}, payload)
		if err == nil {
			result.Sent++
			s.metrics.IncDelivery("sent")
			continue
		}
		result.Failed++
		if errors.Is(err, webpush.ErrGone) {
			s.metrics.IncDelivery("gone")
			if delErr := s.repo.Delete(ctx, sub.ID); delErr != nil {
				failures = multierr.Append(failures, fmt.Errorf("delete %s: %w", sub.ID, delErr))
				continue
			}
			result.Deleted++
			continue
		}
		s.metrics.IncDelivery("failed")
		failures = multierr.Append(failures, fmt.Errorf("send %s: %w", sub.ID, err))
	}

	if s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, businessID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"sent":    result.Sent,
			"failed":  result.Failed,
			"deleted": result.Deleted,
		})
		if failures != nil {
			s.logg.Error(logCtx, "push.reminder", failures)
		} else {
			s.logg.Info(logCtx, "push.reminder")
		}
	}
	return result, nil
}
