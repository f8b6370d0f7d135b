package controllers

import (
	"net/http"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	"github.com/smartpos/smartpos-backend/internal/branches"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

type createBranchRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
}

func BranchCreate(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("branch"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createBranchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.CreateBranch(r.Context(), actor, branches.CreateBranchInput{
			Name:     validators.SanitizeString(body.Name, 255),
			Location: validators.SanitizeOptional(body.Location, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, branch)
	}
}

func BranchList(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("branch"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBranches(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type createStaffRequest struct {
	FullName string  `json:"full_name" validate:"required,max=255"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	BranchID *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
}

func StaffCreate(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("branch"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createStaffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := parseOptionalUUID(body.BranchID, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		staff, err := svc.CreateStaff(r.Context(), actor, branches.CreateStaffInput{
			FullName: validators.SanitizeString(body.FullName, 255),
			Phone:    validators.SanitizeOptional(body.Phone, 50),
			BranchID: branchID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, staff)
	}
}

func StaffList(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("branch"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		staff, err := svc.ListStaff(r.Context(), actor, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, staff)
	}
}
