package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	"github.com/smartpos/smartpos-backend/internal/clients"
	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

// ClientList returns the operator overview of every business.
func ClientList(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("clients"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClientSubscriptionAction applies activate, renew, suspend or reactivate
// taken from the {action} path segment.
func ClientSubscriptionAction(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("clients"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := validators.ParseURLUUID(r, "businessId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action := clients.Action(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "action"))))

		state, err := svc.Transition(r.Context(), actor, businessID, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

type reminderRequest struct {
	Title   string `json:"title,omitempty" validate:"max=120"`
	Message string `json:"message,omitempty" validate:"max=500"`
}

func ClientReminder(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("clients"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := validators.ParseURLUUID(r, "businessId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reminderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Remind(r.Context(), actor, businessID, push.ReminderInput{
			Title:   validators.SanitizeString(body.Title, 120),
			Message: validators.SanitizeString(body.Message, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
