package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/media"
	"github.com/GriffinCanCode/chatgate/internal/shared/id"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/GriffinCanCode/chatgate/internal/storage"
	"go.uber.org/zap"
)

// Engine is a live session handle over one automation technology
type Engine interface {
	Name() string
	Engine() string
	Status() types.SessionStatus
	Config() types.SessionConfig

	// Start begins connecting; it may return before the connection is established
	Start(ctx context.Context) error
	// Stop tears down the connection and releases engine resources
	Stop(ctx context.Context) error
	// Detach stops the engine from writing credentials. A write in progress
	// completes before Detach returns.
	Detach()

	GetSessionMeInfo(ctx context.Context) (*types.MeInfo, error)
	GetEngineInfo(ctx context.Context) (map[string]interface{}, error)

	// Subscribe registers a listener for session events
	Subscribe(fn Listener) (unsubscribe func())
}

// Listener receives session events. It is called synchronously and must not block.
type Listener func(types.Event)

// WorkerConfig locates the external engine worker
type WorkerConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// Params is everything an engine needs from the manager
type Params struct {
	Name   string
	Media  *media.Manager
	Log    *logging.Logger
	Store  storage.Store
	Proxy  *types.ProxyConfig
	Config types.SessionConfig
	Worker WorkerConfig
}

// Constructor builds an engine from params
type Constructor func(Params) (Engine, error)

// Base implements status tracking and event publishing for adapters
type Base struct {
	name   string
	engine string
	config types.SessionConfig
	log    *logging.Logger

	mu        sync.RWMutex
	status    types.SessionStatus
	listeners map[uint64]Listener
	nextID    uint64

	fence    sync.Mutex
	detached bool
}

// NewBase creates a base in STARTING status; an engine exists only for a live session
func NewBase(engine string, p Params) *Base {
	log := p.Log
	if log == nil {
		log = logging.NewNop()
	}
	return &Base{
		name:      p.Name,
		engine:    engine,
		config:    p.Config,
		log:       log,
		status:    types.StatusStarting,
		listeners: make(map[uint64]Listener),
	}
}

func (b *Base) Name() string                { return b.name }
func (b *Base) Engine() string              { return b.engine }
func (b *Base) Config() types.SessionConfig { return b.config }

// Status returns the current status
func (b *Base) Status() types.SessionStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Log returns the session logger
func (b *Base) Log() *logging.Logger {
	return b.log
}

// SetStatus changes the status and publishes a session.status event on change
func (b *Base) SetStatus(status types.SessionStatus) {
	b.mu.Lock()
	prev := b.status
	b.status = status
	b.mu.Unlock()

	if prev == status {
		return
	}
	b.log.Info("Session status changed",
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
	)
	b.Emit(types.EventSessionStatus, map[string]interface{}{"status": status})
}

// Detach fences credential writes made through Persist
func (b *Base) Detach() {
	b.fence.Lock()
	b.detached = true
	b.fence.Unlock()
}

// Detached reports whether Detach was called
func (b *Base) Detached() bool {
	b.fence.Lock()
	defer b.fence.Unlock()
	return b.detached
}

// Persist runs write unless the engine is detached and reports whether it ran
func (b *Base) Persist(write func() error) (bool, error) {
	b.fence.Lock()
	defer b.fence.Unlock()
	if b.detached {
		return false, nil
	}
	return true, write()
}

// Subscribe registers fn and returns a function removing it
func (b *Base) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	key := b.nextID
	b.listeners[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, key)
			b.mu.Unlock()
		})
	}
}

// Emit publishes an event to all listeners in subscription order
func (b *Base) Emit(event string, payload interface{}) {
	evt := types.Event{
		ID:        id.NewEventID().String(),
		Timestamp: time.Now().UTC(),
		Session:   b.name,
		Engine:    b.engine,
		Event:     event,
		Payload:   payload,
	}

	b.mu.RLock()
	keys := make([]uint64, 0, len(b.listeners))
	for k := range b.listeners {
		keys = append(keys, k)
	}
	listeners := make([]Listener, 0, len(keys))
	slices.Sort(keys)
	for _, k := range keys {
		listeners = append(listeners, b.listeners[k])
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		fn(evt)
	}
}
