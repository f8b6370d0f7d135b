package controllers

import (
	"net/http"
	"time"

	"github.com/smartpos/smartpos-backend/api/middleware"
	"github.com/smartpos/smartpos-backend/api/responses"
)

type pingResponse struct {
	Scope      string    `json:"scope"`
	ServerTime time.Time `json:"server_time"`
	BusinessID string    `json:"business_id,omitempty"`
	Role       string    `json:"role,omitempty"`
}

// PublicPing lets POS clients check reachability and clock skew before login.
func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, pingResponse{Scope: "public", ServerTime: time.Now().UTC()})
	}
}

// PrivatePing echoes who the token resolved to.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		responses.WriteSuccess(w, pingResponse{
			Scope:      "private",
			ServerTime: time.Now().UTC(),
			BusinessID: middleware.BusinessIDFromContext(ctx),
			Role:       middleware.RoleFromContext(ctx),
		})
	}
}
