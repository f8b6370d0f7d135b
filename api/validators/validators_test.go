package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
)

type moneyPayload struct {
	Name  string  `json:"name" validate:"required"`
	Price *string `json:"price" validate:"omitempty,non_negative_money"`
}

func TestDecodeJSONBodyValidatesMoney(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"name":"soap","price":"12.50"}`, true},
		{"no price", `{"name":"soap"}`, true},
		{"negative", `{"name":"soap","price":"-1"}`, false},
		{"garbage", `{"name":"soap","price":"abc"}`, false},
		{"missing name", `{"price":"1"}`, false},
		{"unknown field", `{"name":"soap","colour":"red"}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest moneyPayload
			err := DecodeJSONBody(req, &dest)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
			}
		})
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&since=2026-01-02&branch_id=bad", nil)

	limit, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || limit != 5 {
		t.Fatalf("limit: %d %v", limit, err)
	}
	since, err := ParseQueryTime(req, "since")
	if err != nil || since == nil || since.Day() != 2 {
		t.Fatalf("since: %v %v", since, err)
	}
	if _, err := ParseQueryUUID(req, "branch_id"); err == nil {
		t.Fatal("expected invalid uuid error")
	}
	missing, err := ParseQueryUUID(req, "product_id")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing param, got %v %v", missing, err)
	}
}

func TestParseURLUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productId", "2b1f6c1e-7d0a-4c1e-9c1a-0a5d9f0e8b11")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	id, err := ParseURLUUID(req, "productId")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "2b1f6c1e-7d0a-4c1e-9c1a-0a5d9f0e8b11" {
		t.Fatalf("unexpected id %s", id)
	}
	if _, err := ParseURLUUID(req, "missing"); err == nil {
		t.Fatal("expected error for missing param")
	}
}

func TestSanitizeOptional(t *testing.T) {
	blank := "   "
	if SanitizeOptional(&blank, 10) != nil {
		t.Fatal("expected nil for blank input")
	}
	long := "  abcdefghijkl "
	if got := SanitizeOptional(&long, 5); got == nil || *got != "abcde" {
		t.Fatalf("unexpected %v", got)
	}
}

func TestDecodeJSONBodyRejectsMalformedEnvelopes(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"trailing data": `{"name":"soap"}{"name":"rope"}`,
		"wrong type":    `{"name":5}`,
		"syntax":        `{"name":`,
		"too large":     `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			var dest moneyPayload
			err := DecodeJSONBody(req, &dest)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	// byte 6 falls inside the second "é"
	if got := SanitizeString("caféé", 6); got != "café" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("  plain  ", 0); got != "plain" {
		t.Fatalf("unexpected %q", got)
	}
}
