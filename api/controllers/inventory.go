package controllers

import (
	"net/http"
	"strings"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	"github.com/smartpos/smartpos-backend/internal/inventory"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
)

type restockRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	BranchID  *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	Supplier  string  `json:"supplier,omitempty" validate:"max=255"`
	Invoice   string  `json:"invoice,omitempty" validate:"max=255"`
	Notes     string  `json:"notes,omitempty" validate:"max=1000"`
}

type issueRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	StaffID   string  `json:"staff_id" validate:"required,uuid"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	BranchID  *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	Notes     string  `json:"notes,omitempty" validate:"max=1000"`
}

type adjustRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int64   `json:"quantity" validate:"required"`
	BranchID  *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	Notes     string  `json:"notes,omitempty" validate:"max=1000"`
}

type transferRequest struct {
	ProductID    string `json:"product_id" validate:"required,uuid"`
	FromBranchID string `json:"from_branch_id" validate:"required,uuid"`
	ToBranchID   string `json:"to_branch_id" validate:"required,uuid,nefield=FromBranchID"`
	Quantity     int64  `json:"quantity" validate:"required,gt=0"`
	Notes        string `json:"notes,omitempty" validate:"max=1000"`
}

// InventoryRestock records goods received into a branch.
func InventoryRestock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body restockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUID(body.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := parseOptionalUUID(body.BranchID, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Restock(r.Context(), actor, inventory.RestockInput{
			ProductID: productID,
			Quantity:  body.Quantity,
			BranchID:  branchID,
			Supplier:  validators.SanitizeString(body.Supplier, 255),
			Invoice:   validators.SanitizeString(body.Invoice, 255),
			Notes:     validators.SanitizeString(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, movement)
	}
}

// InventoryIssue hands stock from a branch to a staff member.
func InventoryIssue(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body issueRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUID(body.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		staffID, err := parseUUID(body.StaffID, "staff_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := parseOptionalUUID(body.BranchID, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Issue(r.Context(), actor, inventory.IssueInput{
			ProductID: productID,
			StaffID:   staffID,
			Quantity:  body.Quantity,
			BranchID:  branchID,
			Notes:     validators.SanitizeString(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, movement)
	}
}

func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUID(body.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := parseOptionalUUID(body.BranchID, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Adjust(r.Context(), actor, inventory.AdjustInput{
			ProductID: productID,
			Quantity:  body.Quantity,
			BranchID:  branchID,
			Notes:     validators.SanitizeString(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, movement)
	}
}

func InventoryTransfer(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUID(body.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fromID, err := parseUUID(body.FromBranchID, "from_branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toID, err := parseUUID(body.ToBranchID, "to_branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.Transfer(r.Context(), actor, inventory.TransferInput{
			ProductID:    productID,
			FromBranchID: fromID,
			ToBranchID:   toID,
			Quantity:     body.Quantity,
			Notes:        validators.SanitizeString(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, movements)
	}
}

// InventoryStock returns the derived balance of one product.
func InventoryStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		level, err := svc.GetStock(r.Context(), actor, productID, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, level)
	}
}

func InventoryMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := movementFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListRecentMovements(r.Context(), actor, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func InventoryOverview(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
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

		items, err := svc.Overview(r.Context(), actor, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func movementFilterFromQuery(r *http.Request) (inventory.MovementFilter, error) {
	var filter inventory.MovementFilter
	var err error
	if filter.BranchID, err = validators.ParseQueryUUID(r, "branch_id"); err != nil {
		return filter, err
	}
	if filter.ProductID, err = validators.ParseQueryUUID(r, "product_id"); err != nil {
		return filter, err
	}
	if filter.Since, err = validators.ParseQueryTime(r, "since"); err != nil {
		return filter, err
	}
	if filter.Until, err = validators.ParseQueryTime(r, "until"); err != nil {
		return filter, err
	}
	if filter.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return filter, err
	}
	filter.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		movementType, err := enums.ParseMovementType(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type")
		}
		filter.Type = &movementType
	}
	return filter, nil
}
