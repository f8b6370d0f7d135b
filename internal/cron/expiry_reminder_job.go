package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/internal/subscriptions"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

const (
	defaultReminderWindow = 3 * 24 * time.Hour
	reminderTitle         = "Subscription ending soon"
)

type endingLister interface {
	EndingWithin(ctx context.Context, window time.Duration) ([]subscriptions.State, error)
}

type reminderSender interface {
	SendReminder(ctx context.Context, businessID uuid.UUID, input push.ReminderInput) (push.ReminderResult, error)
}

// markStore records which reminders went out. SetNX returns false when the
// key already exists.
type markStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ReminderKey(businessID string, periodEnd time.Time) string
}

type ExpiryReminderJobParams struct {
	Logger        *logger.Logger
	Subscriptions endingLister
	Push          reminderSender
	Marks         markStore
	Window        time.Duration
}

// NewExpiryReminderJob pushes one reminder per subscription window to every
// business whose subscription closes within the window.
func NewExpiryReminderJob(params ExpiryReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.Push == nil {
		return nil, fmt.Errorf("push service required")
	}
	if params.Marks == nil {
		return nil, fmt.Errorf("mark store required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultReminderWindow
	}
	return &expiryReminderJob{
		logg:   params.Logger,
		subs:   params.Subscriptions,
		push:   params.Push,
		marks:  params.Marks,
		window: window,
	}, nil
}

type expiryReminderJob struct {
	logg   *logger.Logger
	subs   endingLister
	push   reminderSender
	marks  markStore
	window time.Duration
}

func (j *expiryReminderJob) Name() string { return "expiry-reminder" }

func (j *expiryReminderJob) Run(ctx context.Context) error {
	states, err := j.subs.EndingWithin(ctx, j.window)
	if err != nil {
		return fmt.Errorf("expiry reminder: %w", err)
	}

	var (
		errs     error
		notified int
	)
	for _, state := range states {
		key := j.marks.ReminderKey(state.BusinessID.String(), state.EndDate)
		fresh, err := j.marks.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), j.window+24*time.Hour)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark %s: %w", state.BusinessID, err))
			continue
		}
		if !fresh {
			continue
		}
		result, err := j.push.SendReminder(ctx, state.BusinessID, push.ReminderInput{
			Title:   reminderTitle,
			Message: reminderMessage(state),
		})
		if err != nil {
			// let the next cycle retry
			_ = j.marks.Del(ctx, key)
			errs = multierr.Append(errs, fmt.Errorf("remind %s: %w", state.BusinessID, err))
			continue
		}
		if result.Sent > 0 {
			notified++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(states),
		"notified":   notified,
	})
	j.logg.Info(logCtx, "expiry reminders complete")
	return errs
}

func reminderMessage(state subscriptions.State) string {
	switch {
	case state.DaysLeft <= 0:
		return "Your subscription ends today. Renew to keep selling."
	case state.DaysLeft == 1:
		return "Your subscription ends tomorrow. Renew to keep selling."
	default:
		return fmt.Sprintf("Your subscription ends in %d days. Renew to keep selling.", state.DaysLeft)
	}
}
