package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/engine"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chatgate/internal/media"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/GriffinCanCode/chatgate/internal/storage"
	"github.com/GriffinCanCode/chatgate/internal/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Conductor delivers a session's events to webhooks
type Conductor interface {
	Configure(src webhook.Source, hooks []types.WebhookConfig)
	Close(ctx context.Context) error
}

// ConductorFactory builds the conductor of a new session
type ConductorFactory func(log *logging.Logger) Conductor

// Config holds the manager's collaborators
type Config struct {
	// Name is the reserved session name
	Name string
	// Engine is the selected engine identifier
	Engine      string
	Constructor engine.Constructor
	Worker      engine.WorkerConfig

	Store   storage.Store
	Auth    *storage.AuthRepository
	Configs *storage.ConfigRepository

	Mimetypes     []string
	MaxMediaBytes int

	GlobalWebhook *types.WebhookConfig
	Conductors    ConductorFactory

	// StopTimeout bounds the background stop triggered by logout
	StopTimeout time.Duration
	// DrainTimeout bounds webhook deliveries still pending when a session is cleared
	DrainTimeout time.Duration

	Log     *logging.Logger
	Metrics *monitoring.Metrics
}

// active is the live session and what it owns
type active struct {
	engine    engine.Engine
	conductor Conductor
	proxy     *types.ProxyConfig
}

// Manager owns the single session of this process
type Manager struct {
	cfg     Config
	log     *logging.Logger
	metrics *monitoring.Metrics

	// lifecycle serializes Start, Stop, Logout and Shutdown
	lifecycle sync.Mutex
	closed    bool

	mu      sync.RWMutex
	current *active

	detached sync.WaitGroup
	draining sync.WaitGroup
}

// NewManager creates a manager with no active session
func NewManager(cfg Config) *Manager {
	if cfg.Log == nil {
		cfg.Log = logging.NewNop()
	}
	if cfg.Auth == nil {
		cfg.Auth = storage.NewAuthRepository(cfg.Store)
	}
	if cfg.Configs == nil {
		cfg.Configs = storage.NewConfigRepository(cfg.Store)
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 30 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.Conductors == nil {
		breakers := webhook.DefaultBreakers()
		metrics := cfg.Metrics
		cfg.Conductors = func(log *logging.Logger) Conductor {
			return webhook.NewConductor(webhook.Config{Log: log, Metrics: metrics, Breakers: breakers})
		}
	}
	return &Manager{cfg: cfg, log: cfg.Log, metrics: cfg.Metrics}
}

// Name returns the reserved session name
func (m *Manager) Name() string {
	return m.cfg.Name
}

// Start creates and starts the session. The returned snapshot is taken
// before the engine finishes connecting.
func (m *Manager) Start(ctx context.Context, req types.StartRequest) (dto *types.SessionDTO, err error) {
	if err := m.checkName(req.Name); err != nil {
		return nil, err
	}
	if req.Config != nil && req.Config.Proxy != nil {
		if _, err := req.Config.Proxy.URL(); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
		}
	}
	timer := monitoring.NewTimer(m.metrics, "start")
	defer func() { timer.Stop(err) }()

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.closed {
		return nil, types.ErrShuttingDown
	}
	// A logout may still be tearing down the previous engine
	m.detached.Wait()

	activeProxies := map[string]*types.ProxyConfig{}
	if s := m.get(); s != nil {
		if s.engine.Status() != types.StatusFailed {
			return nil, fmt.Errorf("%w: %s is %s", types.ErrAlreadyStarted, req.Name, s.engine.Status())
		}
		activeProxies[req.Name] = s.proxy
		m.log.Warn("Replacing failed session", zap.String("session", req.Name))
		if err := m.stopActive(ctx, false); err != nil {
			m.log.Warn("Failed session did not stop cleanly", zap.String("session", req.Name), zap.Error(err))
		}
	}

	config, err := m.resolveConfig(ctx, req)
	if err != nil {
		return nil, err
	}
	req.Config = &config

	log := m.log.ForSession(req.Name, m.cfg.Engine, config.Debug)

	if err := m.cfg.Auth.Init(ctx, req.Name); err != nil {
		return nil, err
	}
	if err := m.cfg.Configs.Init(ctx, req.Name); err != nil {
		return nil, err
	}
	if err := m.cfg.Configs.Save(ctx, req.Name, config); err != nil {
		log.Warn("Failed to persist session config", zap.Error(err))
	}

	proxy := ResolveProxy(req, activeProxies)
	hooks := webhook.Merge(config.Webhooks, m.cfg.GlobalWebhook)

	conductor := m.cfg.Conductors(log)

	eng, err := m.cfg.Constructor(engine.Params{
		Name:   req.Name,
		Media:  m.mediaManager(),
		Log:    log,
		Store:  m.cfg.Store,
		Proxy:  proxy,
		Config: config,
		Worker: m.cfg.Worker,
	})
	if err != nil {
		_ = conductor.Close(ctx)
		return nil, fmt.Errorf("create %s engine: %w", m.cfg.Engine, err)
	}

	m.set(&active{engine: eng, conductor: conductor, proxy: proxy})
	m.metrics.SetSessionActive(true)

	conductor.Configure(eng, hooks)

	log.Info("Starting session",
		zap.Int("webhooks", len(hooks)),
		zap.Bool("proxy", proxy != nil),
	)
	if err := eng.Start(ctx); err != nil {
		log.Error("Engine failed to start", zap.Error(err))
		return nil, err
	}

	return &types.SessionDTO{
		Name:   eng.Name(),
		Status: eng.Status(),
		Config: eng.Config(),
	}, nil
}

// Stop stops the active session and clears it, even when the engine fails to stop.
// With Logout set the stored credentials, config and media are removed afterwards.
func (m *Manager) Stop(ctx context.Context, req types.StopRequest) (err error) {
	if err := m.checkName(req.Name); err != nil {
		return err
	}
	timer := monitoring.NewTimer(m.metrics, "stop")
	defer func() { timer.Stop(err) }()

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	err = m.stopActive(ctx, req.Logout)
	if errors.Is(err, types.ErrSessionNotFound) || !req.Logout {
		return err
	}
	return errors.Join(err, m.cfg.Auth.Clean(ctx, req.Name), m.forget(ctx))
}

// Logout removes stored credentials. The active session, if any, is detached
// from credential storage and stopped in the background, which then removes
// its config and media. A stop failure is logged and does not affect the result.
func (m *Manager) Logout(ctx context.Context, req types.LogoutRequest) (err error) {
	if err := m.checkName(req.Name); err != nil {
		return err
	}
	timer := monitoring.NewTimer(m.metrics, "logout")
	defer func() { timer.Stop(err) }()

	m.lifecycle.Lock()
	s := m.take()
	if s != nil {
		s.engine.Detach()
		m.detached.Add(1)
		go m.stopDetached(s)
	}
	m.lifecycle.Unlock()

	if err := m.cfg.Auth.Clean(ctx, req.Name); err != nil {
		return err
	}
	if s == nil {
		return m.forget(ctx)
	}
	return nil
}

// GetSession returns the live engine of the session
func (m *Manager) GetSession(name string) (engine.Engine, error) {
	if err := m.checkName(name); err != nil {
		return nil, err
	}
	s := m.get()
	if s == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, name)
	}
	return s.engine, nil
}

// GetSessions lists sessions. Without an active session the list is empty,
// or holds one STOPPED placeholder when all is set. Engine queries that fail
// leave me nil and engine info empty.
func (m *Manager) GetSessions(ctx context.Context, all bool) []types.SessionInfo {
	s := m.get()
	if s == nil {
		if !all {
			return []types.SessionInfo{}
		}
		return []types.SessionInfo{{
			SessionDTO: types.SessionDTO{Name: m.cfg.Name, Status: types.StatusStopped},
			Engine:     map[string]interface{}{},
		}}
	}

	eng := s.engine
	me, info := m.probe(ctx, eng)
	return []types.SessionInfo{{
		SessionDTO: types.SessionDTO{
			Name:   eng.Name(),
			Status: eng.Status(),
			Config: eng.Config(),
		},
		Me:     me,
		Engine: info,
	}}
}

// GetSessionInfo returns the session's info, or nil for names other than the reserved one
func (m *Manager) GetSessionInfo(ctx context.Context, name string) *types.SessionInfo {
	if m.checkName(name) != nil {
		return nil
	}
	infos := m.GetSessions(ctx, true)
	return &infos[0]
}

// GetMe returns the account paired with the session; errors propagate
func (m *Manager) GetMe(ctx context.Context, name string) (*types.MeInfo, error) {
	eng, err := m.GetSession(name)
	if err != nil {
		return nil, err
	}
	return eng.GetSessionMeInfo(ctx)
}

// ListMedia returns the keys of media stored for the session
func (m *Manager) ListMedia(ctx context.Context, name string) ([]string, error) {
	if err := m.checkName(name); err != nil {
		return nil, err
	}
	return m.mediaManager().List(ctx)
}

// ReadMedia returns a stored media file of the session by its base name
func (m *Manager) ReadMedia(ctx context.Context, name, file string) ([]byte, error) {
	if err := m.checkName(name); err != nil {
		return nil, err
	}
	mm := m.mediaManager()
	return mm.Read(ctx, mm.Key(file))
}

// Shutdown stops the active session keeping its credentials, refuses further
// starts and waits for background teardowns and webhook drains
func (m *Manager) Shutdown(ctx context.Context) error {
	m.lifecycle.Lock()
	m.closed = true
	var err error
	if m.get() != nil {
		m.log.Info("Stopping session for shutdown", zap.String("session", m.cfg.Name))
		err = m.stopActive(ctx, false)
	}
	m.lifecycle.Unlock()

	done := make(chan struct{})
	go func() {
		m.detached.Wait()
		m.draining.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

func (m *Manager) checkName(name string) error {
	if name != m.cfg.Name {
		return fmt.Errorf("%w: %q, only %q is supported", types.ErrIdentityViolation, name, m.cfg.Name)
	}
	return nil
}

// resolveConfig prefers the request config, then the last saved one
func (m *Manager) resolveConfig(ctx context.Context, req types.StartRequest) (types.SessionConfig, error) {
	if req.Config != nil {
		return *req.Config, nil
	}
	saved, err := m.cfg.Configs.Get(ctx, req.Name)
	if err != nil {
		return types.SessionConfig{}, err
	}
	if saved == nil {
		return types.SessionConfig{}, nil
	}
	m.log.Info("Reusing saved session config", zap.String("session", req.Name))
	return *saved, nil
}

func (m *Manager) mediaManager() *media.Manager {
	return media.NewManager(media.Config{
		Session:   m.cfg.Name,
		Mimetypes: m.cfg.Mimetypes,
		MaxBytes:  m.cfg.MaxMediaBytes,
		Store:     m.cfg.Store,
		Metrics:   m.metrics,
	})
}

// forget removes the saved config and media of the session
func (m *Manager) forget(ctx context.Context) error {
	return errors.Join(
		m.cfg.Configs.Clean(ctx, m.cfg.Name),
		m.mediaManager().Purge(ctx),
	)
}

// stopActive stops the active session and clears it. With detach set no
// credential write happens after it returns. Callers hold lifecycle.
func (m *Manager) stopActive(ctx context.Context, detach bool) error {
	s := m.get()
	if s == nil {
		return fmt.Errorf("%w: %s", types.ErrSessionNotFound, m.cfg.Name)
	}
	if detach {
		s.engine.Detach()
	}

	err := s.engine.Stop(ctx)
	m.take()
	m.release(s)

	if err != nil {
		m.log.Warn("Engine stop failed", zap.String("session", s.engine.Name()), zap.Error(err))
	}
	return err
}

func (m *Manager) stopDetached(s *active) {
	defer m.detached.Done()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.StopTimeout)
	defer cancel()

	if err := s.engine.Stop(ctx); err != nil {
		m.metrics.IncDetachedFailure()
		m.log.Warn("Background stop after logout failed",
			zap.String("session", s.engine.Name()),
			zap.Error(err),
		)
	}
	m.release(s)

	if err := m.forget(ctx); err != nil {
		m.metrics.IncDetachedFailure()
		m.log.Warn("Failed to remove session data after logout",
			zap.String("session", s.engine.Name()),
			zap.Error(err),
		)
	}
}

// release drains the webhooks of a cleared session in the background,
// cancelling deliveries still retrying after DrainTimeout
func (m *Manager) release(s *active) {
	m.draining.Add(1)
	go func() {
		defer m.draining.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DrainTimeout)
		defer cancel()

		if err := s.conductor.Close(ctx); err != nil {
			m.log.Warn("Webhook deliveries cut short", zap.String("session", s.engine.Name()), zap.Error(err))
		}
	}()
}

// probe queries identity and engine info in parallel; failures degrade to empty values
func (m *Manager) probe(ctx context.Context, eng engine.Engine) (*types.MeInfo, map[string]interface{}) {
	var (
		me   *types.MeInfo
		info map[string]interface{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := eng.GetSessionMeInfo(gctx)
		if err != nil {
			m.degraded("me", err)
			return nil
		}
		me = v
		return nil
	})
	g.Go(func() error {
		v, err := eng.GetEngineInfo(gctx)
		if err != nil {
			m.degraded("engine_info", err)
			return nil
		}
		info = v
		return nil
	})
	_ = g.Wait()

	if info == nil {
		info = map[string]interface{}{}
	}
	return me, info
}

func (m *Manager) degraded(query string, err error) {
	m.metrics.IncEngineQueryFailure(query)
	m.log.Warn("Engine query failed", zap.String("query", query), zap.Error(err))
}

func (m *Manager) get() *active {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) set(s *active) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// take clears and returns the active session
func (m *Manager) take() *active {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()
	if s != nil {
		m.metrics.SetSessionActive(false)
	}
	return s
}
