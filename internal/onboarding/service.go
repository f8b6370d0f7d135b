package onboarding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

const modalEventPrefix = "activation_modal_shown:"

type eventRepository interface {
	Insert(ctx context.Context, businessID uuid.UUID, event string) (bool, error)
	Events(ctx context.Context, businessID uuid.UUID, names ...string) (map[string]bool, error)
	HasProduct(ctx context.Context, businessID uuid.UUID) (bool, error)
	HasOrder(ctx context.Context, businessID uuid.UUID) (bool, error)
}

// Step is one checklist item.
type Step struct {
	Key       enums.OnboardingStep `json:"key"`
	Completed bool                 `json:"completed"`
}

// Status is the derived onboarding state of a business.
type Status struct {
	Steps               []Step               `json:"steps"`
	Progress            int                  `json:"progress"`
	NextAction          enums.OnboardingStep `json:"next_action,omitempty"`
	ShowActivationModal bool                 `json:"show_activation_modal"`
}

// Service tracks activation milestones.
type Service interface {
	Status(ctx context.Context, businessID uuid.UUID) (*Status, error)
	Checklist(ctx context.Context, businessID uuid.UUID) (*Status, error)
	RecordEvent(ctx context.Context, businessID uuid.UUID, event string) error
}

type service struct {
	repo eventRepository
	logg *logger.Logger
}

func NewService(repo eventRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("onboarding repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// RecordEvent stores a milestone once. Recording it again is a no-op. Only
// checklist steps are accepted; prompt sentinels are written by Status.
func (s *service) RecordEvent(ctx context.Context, businessID uuid.UUID, event string) error {
	if businessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	step, err := enums.ParseOnboardingStep(strings.TrimSpace(event))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid onboarding event")
	}
	event = step.String()
	inserted, err := s.repo.Insert(ctx, businessID, event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record onboarding event")
	}
	if inserted && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"business_id": businessID.String(),
			"event":       event,
		})
		s.logg.Info(logCtx, "onboarding.event_recorded")
	}
	return nil
}

// Status derives the checklist on every call. When a step is pending, the
// first call for that step claims the activation prompt; later calls for the
// same step do not.
func (s *service) Status(ctx context.Context, businessID uuid.UUID) (*Status, error) {
	status, err := s.Checklist(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if status.NextAction != "" {
		shown, err := s.repo.Insert(ctx, businessID, modalEventPrefix+status.NextAction.String())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record activation prompt")
		}
		status.ShowActivationModal = shown
	}
	return status, nil
}

// Checklist derives the same steps as Status without claiming the activation
// prompt, so ShowActivationModal is always false.
func (s *service) Checklist(ctx context.Context, businessID uuid.UUID) (*Status, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}

	hasProduct, err := s.repo.HasProduct(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check products")
	}
	hasOrder, err := s.repo.HasOrder(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check orders")
	}
	events, err := s.repo.Events(ctx, businessID,
		enums.OnboardingStepViewReport.String(),
		enums.OnboardingStepInstallApp.String(),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load onboarding events")
	}

	done := map[enums.OnboardingStep]bool{
		enums.OnboardingStepAddProduct:  hasProduct,
		enums.OnboardingStepSellProduct: hasOrder,
		// older businesses predate the report event
		enums.OnboardingStepViewReport: events[enums.OnboardingStepViewReport.String()] || hasOrder,
		enums.OnboardingStepInstallApp: events[enums.OnboardingStepInstallApp.String()],
	}

	status := &Status{Steps: make([]Step, 0, len(enums.OnboardingSteps))}
	completed := 0
	for _, step := range enums.OnboardingSteps {
		status.Steps = append(status.Steps, Step{Key: step, Completed: done[step]})
		if done[step] {
			completed++
		} else if status.NextAction == "" {
			status.NextAction = step
		}
	}
	status.Progress = Progress(completed, len(enums.OnboardingSteps))
	return status, nil
}

// Progress is the rounded completion percentage.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
