package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smartpos/smartpos-backend/api/responses"
	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	pkgredis "github.com/smartpos/smartpos-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replay"

	setupTTL = 24 * time.Hour
	stockTTL = 7 * 24 * time.Hour
)

// replayRule marks a write endpoint whose responses are remembered under the
// caller's Idempotency-Key. A path ending in "/" matches as a prefix.
type replayRule struct {
	method string
	path   string
	ttl    time.Duration
}

var replayRules = []replayRule{
	{http.MethodPost, "/api/v1/auth/register", setupTTL},
	{http.MethodPost, "/api/v1/products", setupTTL},
	{http.MethodPost, "/api/v1/branches", setupTTL},
	{http.MethodPost, "/api/v1/staff", setupTTL},
	{http.MethodPost, "/api/v1/users", setupTTL},
	{http.MethodPost, "/api/v1/admin/clients/", setupTTL},
	// sales and stock movements are kept longer
	{http.MethodPost, "/api/v1/orders", stockTTL},
	{http.MethodPost, "/api/v1/inventory/", stockTTL},
}

func replayTTL(method, path string) (time.Duration, bool) {
	for _, rule := range replayRules {
		if rule.method != method {
			continue
		}
		if path == rule.path || (strings.HasSuffix(rule.path, "/") && strings.HasPrefix(path, rule.path)) {
			return rule.ttl, true
		}
	}
	return 0, false
}

type replayState string

const (
	statePending replayState = "pending"
	stateDone    replayState = "done"
)

type replayRecord struct {
	State       replayState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        string      `json:"body,omitempty"`
}

// Idempotency reserves the key before the handler runs so concurrent retries
// cannot both apply. Server errors release the key; anything else is stored
// and replayed byte for byte.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := replayTTL(r.Method, r.URL.Path)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)

			pending, _ := json.Marshal(replayRecord{State: statePending, RequestHash: hash})
			reserved, err := store.SetNX(ctx, key, string(pending), ttl)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
				return
			}
			if !reserved {
				replayExisting(ctx, logg, w, store, key, hash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			if capture.statusCode() >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil && logg != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
				return
			}
			done, _ := json.Marshal(replayRecord{
				State:       stateDone,
				RequestHash: hash,
				Status:      capture.statusCode(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
			})
			if err := store.Set(ctx, key, string(done), ttl); err != nil && logg != nil {
				logg.Error(ctx, "idempotency.persist_failed", err)
			}
		})
	}
}

func replayExisting(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, hash string) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if pkgredis.IsMiss(err) {
			// released by a failed attempt between SetNX and Get
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this key is being retried, try again"))
			return
		}
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
		return
	}

	var record replayRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State == statePending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayHeader, "true")
		w.WriteHeader(record.Status)
		if body, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
			_, _ = w.Write(body)
		}
	}
}

// replayScope keeps keys from colliding across users, businesses and routes.
func replayScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{
		UserIDFromContext(ctx),
		BusinessIDFromContext(ctx),
		r.Method,
		r.URL.Path,
	}, "|")
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
