package cron

import (
	"context"
	"fmt"

	"github.com/smartpos/smartpos-backend/pkg/logger"
)

type overdueExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

type SubscriptionExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions overdueExpirer
}

// NewSubscriptionExpiryJob flips trial and active subscriptions whose end
// date has passed to expired, so read paths agree with the login gate.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &subscriptionExpiryJob{
		logg: params.Logger,
		subs: params.Subscriptions,
	}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	subs overdueExpirer
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.subs.ExpireOverdue(ctx)
	if err != nil {
		return fmt.Errorf("subscription expiry: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_expired", expired)
	j.logg.Info(logCtx, "subscription expiry complete")
	return nil
}
