// Package webpush delivers browser push messages signed with the server's
// VAPID key pair.
package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/smartpos/smartpos-backend/pkg/config"
)

// ErrGone reports that the push service no longer knows the endpoint. The
// stored subscription should be removed.
var ErrGone = errors.New("push subscription gone")

// Target is one browser subscription.
type Target struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Notifier sends encrypted payloads to push services.
type Notifier struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        time.Duration
	httpClient webpush.HTTPClient
}

// Option customises a Notifier.
type Option func(*Notifier)

// WithHTTPClient overrides the HTTP client used to reach push services.
func WithHTTPClient(client webpush.HTTPClient) Option {
	return func(n *Notifier) {
		n.httpClient = client
	}
}

// NewNotifier validates the VAPID configuration and returns a notifier.
func NewNotifier(cfg config.PushConfig, opts ...Option) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("vapid keys required")
	}
	publicKey, err := NormalizePublicKey(cfg.VAPIDPublicKey)
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		publicKey:  publicKey,
		privateKey: strings.TrimSpace(cfg.VAPIDPrivateKey),
		subscriber: strings.TrimSpace(cfg.Subscriber),
		ttl:        cfg.TTL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// PublicKey is the browser-facing application server key.
func (n *Notifier) PublicKey() string {
	return n.publicKey
}

// Send encrypts payload for the target and posts it to the push service.
func (n *Notifier) Send(ctx context.Context, target Target, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.P256dh,
			Auth:   target.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      n.httpClient,
		Subscriber:      n.subscriber,
		VAPIDPublicKey:  n.publicKey,
		VAPIDPrivateKey: n.privateKey,
		TTL:             int(n.ttl.Seconds()),
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("push service responded %d", resp.StatusCode)
	}
}

// NormalizePublicKey strips whitespace from a pasted key and rejects PEM or
// DER encodings. Browsers expect the raw base64url point, which starts
// with "B".
func NormalizePublicKey(raw string) (string, error) {
	key := strings.Join(strings.Fields(raw), "")
	if key == "" {
		return "", fmt.Errorf("vapid public key not set")
	}
	if strings.HasPrefix(key, "M") || strings.Contains(key, "BEGIN") {
		return "", fmt.Errorf("vapid public key must be a base64url application server key, not PEM or DER")
	}
	return key, nil
}
