package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/engine"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"go.uber.org/zap"
)

// Source publishes session events
type Source interface {
	Subscribe(fn engine.Listener) (unsubscribe func())
}

// Config configures a Conductor
type Config struct {
	Log      *logging.Logger
	Metrics  *monitoring.Metrics
	Timeout  time.Duration
	Breakers *resilience.Set
}

// DefaultBreakers returns breaker settings for webhook URLs
func DefaultBreakers() *resilience.Set {
	return resilience.NewSet(resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Conductor wires webhooks to one session's events
type Conductor struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	unsubs []func()
	closed bool
	wg     sync.WaitGroup
}

// NewConductor creates a conductor; Close releases it
func NewConductor(cfg Config) *Conductor {
	if cfg.Log == nil {
		cfg.Log = logging.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Breakers == nil {
		cfg.Breakers = DefaultBreakers()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Conductor{cfg: cfg, ctx: ctx, cancel: cancel}
}

// Configure subscribes every hook to src. Each hook receives only the events it lists.
func (c *Conductor) Configure(src Source, hooks []types.WebhookConfig) {
	for _, hook := range hooks {
		s := newSender(hook, c.cfg)
		unsub := src.Subscribe(func(evt types.Event) {
			if !hook.Subscribed(evt.Event) {
				return
			}
			c.dispatch(s, evt)
		})

		c.mu.Lock()
		c.unsubs = append(c.unsubs, unsub)
		c.mu.Unlock()

		c.cfg.Log.Info("Webhook configured",
			zap.String("url", hook.URL),
			zap.Strings("events", hook.Events),
		)
	}
}

func (c *Conductor) dispatch(s *sender, evt types.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		s.send(c.ctx, evt)
	}()
}

// Close unsubscribes all hooks and waits for in-flight deliveries.
// When ctx expires first, pending retries are cancelled.
func (c *Conductor) Close(ctx context.Context) error {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.closed = true
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}
