package product

import (
	"github.com/smartpos/smartpos-backend/pkg/pagination"
)

// ListProductsInput captures the inputs needed to page through a business's products.
type ListProductsInput struct {
	Query      string
	Pagination pagination.Params
}

// ProductListResult is one page of products plus the cursor for the next.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
