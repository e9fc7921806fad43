package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Delivery headers
const (
	HeaderRequestID     = "X-Webhook-Request-Id"
	HeaderTimestamp     = "X-Webhook-Timestamp"
	HeaderHMAC          = "X-Webhook-Hmac"
	HeaderHMACAlgorithm = "X-Webhook-Hmac-Algorithm"
)

// sender posts events to one webhook
type sender struct {
	hook    types.WebhookConfig
	client  *retryablehttp.Client
	breaker *resilience.Breaker
	log     *logging.Logger
	metrics *monitoring.Metrics
}

func newSender(hook types.WebhookConfig, cfg Config) *sender {
	policy := retriesOf(hook)

	client := retryablehttp.NewClient()
	client.RetryMax = policy.Attempts - 1
	client.RetryWaitMin = time.Duration(policy.DelaySeconds) * time.Second
	client.RetryWaitMax = maxBackoff
	client.Backoff = Backoff(policy)
	client.Logger = newRetryLogger(cfg.Log)
	client.HTTPClient.Timeout = cfg.Timeout

	return &sender{
		hook:    hook,
		client:  client,
		breaker: cfg.Breakers.Get(hook.URL),
		log:     cfg.Log,
		metrics: cfg.Metrics,
	}
}

// send delivers evt and records the outcome
func (s *sender) send(ctx context.Context, evt types.Event) {
	start := time.Now()
	err := s.breaker.Execute(func() error {
		return s.deliver(ctx, evt)
	})

	status := "success"
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		status = "rejected"
	case err != nil:
		status = "failure"
	}
	s.metrics.RecordWebhookDelivery(evt.Event, status, time.Since(start))

	if err != nil {
		s.log.Warn("Webhook delivery failed",
			zap.String("url", s.hook.URL),
			zap.String("event", evt.Event),
			zap.String("event_id", evt.ID),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("Webhook delivered",
		zap.String("url", s.hook.URL),
		zap.String("event", evt.Event),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *sender) deliver(ctx context.Context, evt types.Event) error {
	body, err := sonic.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.hook.URL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(time.Now().UnixMilli(), 10))
	if s.hook.HMAC != nil && s.hook.HMAC.Key != "" {
		req.Header.Set(HeaderHMAC, Sign(s.hook.HMAC.Key, body))
		req.Header.Set(HeaderHMACAlgorithm, "sha512")
	}
	for _, h := range s.hook.CustomHeaders {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}

// Sign returns the hex HMAC-SHA512 of body under key
func Sign(key string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
