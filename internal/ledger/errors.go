package ledger

import (
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

// Sentinel errors. Callers match them with errors.Is; never attach details
// to these values directly.
var (
	ErrInsufficientStock = pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
	ErrInvalidStaff      = pkgerrors.New(pkgerrors.CodeValidation, "invalid staff")
	ErrInvalidBranch     = pkgerrors.New(pkgerrors.CodeValidation, "invalid branch")
	ErrInvalidProduct    = pkgerrors.New(pkgerrors.CodeValidation, "invalid product")
	ErrInvalidQuantity   = pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity")
	ErrBranchRequired    = visibility.ErrBranchRequired
)

func insufficientStock(available, requested int64) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, ErrInsufficientStock.Message()).
		WithDetails(map[string]any{
			"available": available,
			"requested": requested,
		})
}
