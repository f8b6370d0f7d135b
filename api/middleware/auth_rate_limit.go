package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smartpos/smartpos-backend/api/responses"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

// maxAuthBody caps how much of a credential body is buffered to find the
// username.
const maxAuthBody = 64 << 10

// RateLimitStore counts attempts inside a fixed window.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateRule throttles one auth surface by client IP and by username. A zero
// limit turns that dimension off.
type RateRule struct {
	Name        string
	Window      time.Duration
	PerIP       int
	PerUsername int
}

func (r RateRule) active() bool {
	return r.Window > 0 && (r.PerIP > 0 || r.PerUsername > 0)
}

type bucket struct {
	dimension string
	value     string
	limit     int
}

func (r RateRule) scope(b bucket) string {
	return r.Name + ":" + b.dimension + ":" + b.value
}

// AuthRateLimit rejects requests with 429 once any bucket of rule overflows.
// Usernames are hashed before they become part of a key.
func AuthRateLimit(rule RateRule, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rule.active() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			buckets, err := rule.buckets(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}

			for _, b := range buckets {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(rule.scope(b)), rule.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if count > int64(b.limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"rule":      rule.Name,
							"dimension": b.dimension,
							"attempts":  count,
							"limit":     b.limit,
						}), "auth.rate_limited")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// buckets reads the body when a username limit applies and restores it for
// the next handler.
func (r RateRule) buckets(req *http.Request) ([]bucket, error) {
	var out []bucket
	if r.PerIP > 0 {
		if ip := clientIP(req); ip != "" {
			out = append(out, bucket{dimension: "ip", value: ip, limit: r.PerIP})
		}
	}
	if r.PerUsername > 0 && req.Body != nil {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxAuthBody))
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		if username := usernameFrom(body); username != "" {
			sum := sha256.Sum256([]byte(username))
			out = append(out, bucket{dimension: "user", value: hex.EncodeToString(sum[:]), limit: r.PerUsername})
		}
	}
	return out, nil
}

func usernameFrom(body []byte) string {
	var payload struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Username))
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
