package controllers

import (
	"net/http"
	"strings"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	"github.com/smartpos/smartpos-backend/internal/users"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     string `json:"role" validate:"required,oneof=manager storekeeper"`
	BranchID string `json:"branch_id" validate:"required,uuid"`
}

// UserCreate lets an admin add a branch-bound manager or storekeeper. A
// password is generated when none is supplied.
func UserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("user"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseRole(strings.TrimSpace(body.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		branchID, err := parseUUID(body.BranchID, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actor, users.CreateUserInput{
			Username: strings.TrimSpace(body.Username),
			Password: body.Password,
			Role:     role,
			BranchID: branchID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, created)
	}
}

func UserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("user"))
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
