// Package inventory applies role visibility and referential checks on top of
// the stock ledger.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/internal/ledger"
	"github.com/smartpos/smartpos-backend/pkg/enums"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/visibility"
)

var (
	restockRoles  = []enums.Role{enums.RoleAdmin, enums.RoleManager}
	issueRoles    = []enums.Role{enums.RoleAdmin, enums.RoleStorekeeper}
	adjustRoles   = []enums.Role{enums.RoleAdmin, enums.RoleManager}
	overviewRoles = []enums.Role{enums.RoleAdmin, enums.RoleManager}

	errProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	errBranchNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
)

// Service is the tenant-facing stock API.
type Service interface {
	GetStock(ctx context.Context, actor visibility.Actor, productID uuid.UUID, branchID *uuid.UUID) (*StockLevel, error)
	ListRecentMovements(ctx context.Context, actor visibility.Actor, filter MovementFilter) (*MovementList, error)
	Restock(ctx context.Context, actor visibility.Actor, input RestockInput) (*MovementDTO, error)
	Issue(ctx context.Context, actor visibility.Actor, input IssueInput) (*MovementDTO, error)
	Adjust(ctx context.Context, actor visibility.Actor, input AdjustInput) (*MovementDTO, error)
	Transfer(ctx context.Context, actor visibility.Actor, input TransferInput) ([]MovementDTO, error)
	Overview(ctx context.Context, actor visibility.Actor, branchID *uuid.UUID) ([]OverviewItem, error)
}

type service struct {
	ledger ledger.Service
	db     *gorm.DB
}

// NewService wires the inventory service. db serves the read-side lookups;
// write-side lookups run on the ledger transaction.
func NewService(ledgerSvc ledger.Service, db *gorm.DB) (Service, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{ledger: ledgerSvc, db: db}, nil
}

func (s *service) GetStock(ctx context.Context, actor visibility.Actor, productID uuid.UUID, branchID *uuid.UUID) (*StockLevel, error) {
	scope, err := s.readScope(ctx, actor, branchID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReadableProduct(ctx, scope.BusinessID, productID); err != nil {
		return nil, err
	}
	stock, err := s.ledger.CurrentStock(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	return &StockLevel{ProductID: productID, BranchID: scope.BranchID, Stock: stock}, nil
}

func (s *service) ListRecentMovements(ctx context.Context, actor visibility.Actor, filter MovementFilter) (*MovementList, error) {
	scope, err := s.readScope(ctx, actor, filter.BranchID)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.ledger.Recent(ctx, scope, ledger.RecentFilter{
		Type:      filter.Type,
		ProductID: filter.ProductID,
		Since:     filter.Since,
		Until:     filter.Until,
		Limit:     filter.Limit,
		Cursor:    filter.Cursor,
	})
	if err != nil {
		return nil, err
	}
	return &MovementList{Movements: movementsFromModels(rows), NextCursor: next}, nil
}

func (s *service) Restock(ctx context.Context, actor visibility.Actor, input RestockInput) (*MovementDTO, error) {
	if err := requireRole(actor, restockRoles, "restock"); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, ledger.ErrInvalidQuantity
	}
	scope, err := visibility.For(actor, visibility.Request{Branch: input.BranchID, Write: true})
	if err != nil {
		return nil, err
	}
	branchID := *scope.BranchID

	movement, err := s.ledger.Append(ctx, ledger.AppendInput{
		BusinessID: scope.BusinessID,
		BranchID:   branchID,
		ProductID:  input.ProductID,
		Type:       enums.MovementTypeIn,
		Quantity:   input.Quantity,
		Notes:      RestockNotes(input.Supplier, input.Invoice, input.Notes),
		CreatedBy:  actor.UserID,
	}, func(tx *gorm.DB) error {
		refs := newReferences(tx)
		if err := refs.requireBranch(ctx, scope.BusinessID, branchID); err != nil {
			return err
		}
		return refs.requireProduct(ctx, scope.BusinessID, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	dto := movementFromModel(movement)
	return &dto, nil
}

func (s *service) Issue(ctx context.Context, actor visibility.Actor, input IssueInput) (*MovementDTO, error) {
	if err := requireRole(actor, issueRoles, "issue stock"); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, ledger.ErrInvalidQuantity
	}
	if input.StaffID == uuid.Nil {
		return nil, ledger.ErrInvalidStaff
	}
	scope, err := visibility.For(actor, visibility.Request{Branch: input.BranchID, Write: true})
	if err != nil {
		return nil, err
	}
	branchID := *scope.BranchID
	staffID := input.StaffID

	movement, err := s.ledger.Append(ctx, ledger.AppendInput{
		BusinessID: scope.BusinessID,
		BranchID:   branchID,
		ProductID:  input.ProductID,
		Type:       enums.MovementTypeIssue,
		Quantity:   -input.Quantity,
		StaffID:    &staffID,
		Notes:      input.Notes,
		CreatedBy:  actor.UserID,
	}, func(tx *gorm.DB) error {
		refs := newReferences(tx)
		if err := refs.requireBranch(ctx, scope.BusinessID, branchID); err != nil {
			return err
		}
		if err := refs.requireStaff(ctx, scope.BusinessID, branchID, staffID); err != nil {
			return err
		}
		return refs.requireProduct(ctx, scope.BusinessID, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	dto := movementFromModel(movement)
	return &dto, nil
}

func (s *service) Adjust(ctx context.Context, actor visibility.Actor, input AdjustInput) (*MovementDTO, error) {
	if err := requireRole(actor, adjustRoles, "adjust stock"); err != nil {
		return nil, err
	}
	if input.Quantity == 0 {
		return nil, ledger.ErrInvalidQuantity
	}
	scope, err := visibility.For(actor, visibility.Request{Branch: input.BranchID, Write: true})
	if err != nil {
		return nil, err
	}
	branchID := *scope.BranchID

	movement, err := s.ledger.Append(ctx, ledger.AppendInput{
		BusinessID: scope.BusinessID,
		BranchID:   branchID,
		ProductID:  input.ProductID,
		Type:       enums.MovementTypeAdjustment,
		Quantity:   input.Quantity,
		Notes:      input.Notes,
		CreatedBy:  actor.UserID,
	}, func(tx *gorm.DB) error {
		refs := newReferences(tx)
		if err := refs.requireBranch(ctx, scope.BusinessID, branchID); err != nil {
			return err
		}
		return refs.requireProduct(ctx, scope.BusinessID, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	dto := movementFromModel(movement)
	return &dto, nil
}

// Transfer writes the outgoing and incoming halves in one transaction.
func (s *service) Transfer(ctx context.Context, actor visibility.Actor, input TransferInput) ([]MovementDTO, error) {
	if !actor.Privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only business admins can transfer stock")
	}
	if input.Quantity <= 0 {
		return nil, ledger.ErrInvalidQuantity
	}
	if input.FromBranchID == uuid.Nil || input.ToBranchID == uuid.Nil || input.FromBranchID == input.ToBranchID {
		return nil, ledger.ErrInvalidBranch
	}
	from := input.FromBranchID
	scope, err := visibility.For(actor, visibility.Request{Branch: &from, Write: true})
	if err != nil {
		return nil, err
	}

	source := from
	rows, err := s.ledger.AppendBatch(ctx, []ledger.AppendInput{
		{
			BusinessID: scope.BusinessID,
			BranchID:   input.FromBranchID,
			ProductID:  input.ProductID,
			Type:       enums.MovementTypeTransfer,
			Quantity:   -input.Quantity,
			Notes:      input.Notes,
			CreatedBy:  actor.UserID,
		},
		{
			BusinessID:   scope.BusinessID,
			BranchID:     input.ToBranchID,
			ProductID:    input.ProductID,
			Type:         enums.MovementTypeTransfer,
			Quantity:     input.Quantity,
			FromBranchID: &source,
			Notes:        input.Notes,
			CreatedBy:    actor.UserID,
		},
	}, func(tx *gorm.DB) error {
		refs := newReferences(tx)
		if err := refs.requireBranch(ctx, scope.BusinessID, input.FromBranchID); err != nil {
			return err
		}
		if err := refs.requireBranch(ctx, scope.BusinessID, input.ToBranchID); err != nil {
			return err
		}
		return refs.requireProduct(ctx, scope.BusinessID, input.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return movementsFromModels(rows), nil
}

// Overview lists every product with its stock in scope. A product is low on
// stock once its balance is at or below min_stock.
func (s *service) Overview(ctx context.Context, actor visibility.Actor, branchID *uuid.UUID) ([]OverviewItem, error) {
	if err := requireRole(actor, overviewRoles, "view the inventory overview"); err != nil {
		return nil, err
	}
	scope, err := s.readScope(ctx, actor, branchID)
	if err != nil {
		return nil, err
	}
	products, err := newReferences(s.db).products(ctx, scope.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	stock, err := s.ledger.StockByProduct(ctx, scope)
	if err != nil {
		return nil, err
	}

	items := make([]OverviewItem, 0, len(products))
	for _, p := range products {
		level := stock[p.ID]
		items = append(items, OverviewItem{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     level,
			MinStock:  p.MinStock,
			LowStock:  level <= int64(p.MinStock),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// readScope resolves a read scope. A branch named by a privileged actor must
// belong to the actor's business; restricted actors are already pinned to
// their own branch by visibility.For.
func (s *service) readScope(ctx context.Context, actor visibility.Actor, branchID *uuid.UUID) (visibility.Scope, error) {
	scope, err := visibility.For(actor, visibility.Request{Branch: branchID})
	if err != nil {
		return visibility.Scope{}, err
	}
	if scope.BranchID == nil || !actor.Privileged() {
		return scope, nil
	}
	found, err := newReferences(s.db).branchExists(ctx, scope.BusinessID, *scope.BranchID)
	if err != nil {
		return visibility.Scope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !found {
		return visibility.Scope{}, errBranchNotFound
	}
	return scope, nil
}

func (s *service) requireReadableProduct(ctx context.Context, businessID, productID uuid.UUID) error {
	if _, err := newReferences(s.db).product(ctx, businessID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errProductNotFound
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return nil
}

func requireRole(actor visibility.Actor, allowed []enums.Role, action string) error {
	if actor.BusinessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor is not bound to a business")
	}
	if !actor.Role.IsOneOf(allowed...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role to "+action)
	}
	return nil
}

// RestockNotes formats supplier, invoice and free-text notes as
// "Supplier: s | Invoice: i | notes", leaving out empty parts.
func RestockNotes(supplier, invoice, notes string) string {
	parts := make([]string, 0, 3)
	if v := strings.TrimSpace(supplier); v != "" {
		parts = append(parts, "Supplier: "+v)
	}
	if v := strings.TrimSpace(invoice); v != "" {
		parts = append(parts, "Invoice: "+v)
	}
	if v := strings.TrimSpace(notes); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " | ")
}
