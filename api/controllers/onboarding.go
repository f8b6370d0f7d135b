package controllers

import (
	"net/http"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	"github.com/smartpos/smartpos-backend/internal/onboarding"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

func OnboardingStatus(svc onboarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("onboarding"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context(), actor.BusinessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// Clients may only report the milestones the server cannot observe itself.
type recordEventRequest struct {
	Event string `json:"event" validate:"required,oneof=view_report install_app"`
}

// OnboardingEvent records a client-side milestone and returns the refreshed
// checklist. The activation prompt is left for the next status call to claim.
func OnboardingEvent(svc onboarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("onboarding"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body recordEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RecordEvent(r.Context(), actor.BusinessID, body.Event); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Checklist(r.Context(), actor.BusinessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
