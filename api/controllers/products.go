package controllers

import (
	"net/http"
	"strings"

	"github.com/smartpos/smartpos-backend/api/responses"
	"github.com/smartpos/smartpos-backend/api/validators"
	product "github.com/smartpos/smartpos-backend/internal/products"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/pagination"
)

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Price       *string `json:"price,omitempty" validate:"omitempty,non_negative_money"`
	BuyingPrice *string `json:"buying_price,omitempty" validate:"omitempty,non_negative_money"`
	MinStock    *int    `json:"min_stock,omitempty" validate:"omitempty,min=0"`
}

func (r createProductRequest) toInput() (product.CreateProductInput, error) {
	price, err := parseOptionalDecimal(r.Price, "price")
	if err != nil {
		return product.CreateProductInput{}, err
	}
	buying, err := parseOptionalDecimal(r.BuyingPrice, "buying_price")
	if err != nil {
		return product.CreateProductInput{}, err
	}
	return product.CreateProductInput{
		Name:        validators.SanitizeString(r.Name, 255),
		Price:       price,
		BuyingPrice: buying,
		MinStock:    r.MinStock,
	}, nil
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Price       *string `json:"price,omitempty" validate:"omitempty,non_negative_money"`
	BuyingPrice *string `json:"buying_price,omitempty" validate:"omitempty,non_negative_money"`
	MinStock    *int    `json:"min_stock,omitempty" validate:"omitempty,min=0"`
}

func (r updateProductRequest) toInput() (product.UpdateProductInput, error) {
	price, err := parseOptionalDecimal(r.Price, "price")
	if err != nil {
		return product.UpdateProductInput{}, err
	}
	buying, err := parseOptionalDecimal(r.BuyingPrice, "buying_price")
	if err != nil {
		return product.UpdateProductInput{}, err
	}
	return product.UpdateProductInput{
		Name:        validators.SanitizeOptional(r.Name, 255),
		Price:       price,
		BuyingPrice: buying,
		MinStock:    r.MinStock,
	}, nil
}

// ProductCreate handles product creation for the actor's business.
func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProduct(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, created)
	}
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
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

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), actor, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
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

		found, err := svc.GetProduct(r.Context(), actor, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), actor, product.ListProductsInput{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
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
