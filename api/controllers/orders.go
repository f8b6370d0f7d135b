package controllers

import (
	"net/http"
	"strings"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	"github.com/smartpos/smartpos-backend/internal/orders"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
)

type createOrderRequest struct {
	BranchID    *string            `json:"branch_id,omitempty" validate:"omitempty,uuid"`
	ClientName  *string            `json:"client_name,omitempty" validate:"omitempty,max=255"`
	SalesPerson *string            `json:"sales_person,omitempty" validate:"omitempty,max=255"`
	Lines       []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type orderLineRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice *string `json:"unit_price,omitempty" validate:"omitempty,non_negative_money"`
}

func (r createOrderRequest) toInput() (orders.CreateOrderInput, error) {
	branchID, err := parseOptionalUUID(r.BranchID, "branch_id")
	if err != nil {
		return orders.CreateOrderInput{}, err
	}
	lines := make([]orders.LineInput, 0, len(r.Lines))
	for _, line := range r.Lines {
		productID, err := parseUUID(line.ProductID, "product_id")
		if err != nil {
			return orders.CreateOrderInput{}, err
		}
		price, err := parseOptionalDecimal(line.UnitPrice, "unit_price")
		if err != nil {
			return orders.CreateOrderInput{}, err
		}
		lines = append(lines, orders.LineInput{ProductID: productID, Quantity: line.Quantity, UnitPrice: price})
	}
	return orders.CreateOrderInput{
		BranchID:    branchID,
		ClientName:  validators.SanitizeOptional(r.ClientName, 255),
		SalesPerson: validators.SanitizeOptional(r.SalesPerson, 255),
		Lines:       lines,
	}, nil
}

// OrderCreate records a sale.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, order)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
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
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), actor, orders.ListOrdersInput{
			BranchID: branchID,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
