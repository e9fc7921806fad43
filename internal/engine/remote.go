package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/media"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/GriffinCanCode/chatgate/internal/storage"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Frames with these names are handled by the adapter rather than published
const (
	frameState      = "state"
	frameAuthUpdate = "auth.update"
)

// Remote drives a session hosted by an external engine worker
type Remote struct {
	*Base

	kind   string
	client *resty.Client
	wsURL  string
	dialer *websocket.Dialer
	media  *media.Manager
	auth   *storage.AuthRepository
	proxy  *types.ProxyConfig

	mu       sync.Mutex
	conn     *websocket.Conn
	done     chan struct{}
	stopping atomic.Bool
}

type frame struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

type startBody struct {
	Config types.SessionConfig `json:"config"`
	Proxy  *types.ProxyConfig  `json:"proxy,omitempty"`
	Auth   map[string]string   `json:"auth,omitempty"`
}

// newRemote builds the adapter for one engine kind
func newRemote(engine string, p Params) (*Remote, error) {
	if p.Worker.Endpoint == "" {
		return nil, fmt.Errorf("%s: engine worker endpoint required", engine)
	}
	base, err := url.Parse(strings.TrimRight(p.Worker.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid worker endpoint: %w", engine, err)
	}
	if p.Store == nil {
		return nil, fmt.Errorf("%s: session store required", engine)
	}

	kind := strings.ToLower(engine)
	sessionPath := fmt.Sprintf("/%s/sessions/%s", kind, url.PathEscape(p.Name))

	ws := *base
	switch ws.Scheme {
	case "https":
		ws.Scheme = "wss"
	default:
		ws.Scheme = "ws"
	}
	ws.Path += sessionPath + "/events"

	timeout := p.Worker.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Pooled transport from retryablehttp; retries are resty's
	transport := retryablehttp.NewClient().HTTPClient.Transport
	client := resty.New().
		SetBaseURL(base.String()+sessionPath).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(250*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("User-Agent", "chatgate-engine/1.0").
		SetTransport(transport)

	return &Remote{
		Base:   NewBase(engine, p),
		kind:   kind,
		client: client,
		wsURL:  ws.String(),
		dialer: &websocket.Dialer{HandshakeTimeout: timeout},
		media:  p.Media,
		auth:   storage.NewAuthRepository(p.Store),
		proxy:  p.Proxy.Clone(),
	}, nil
}

// Start asks the worker to connect and subscribes to its event stream
func (r *Remote) Start(ctx context.Context) error {
	body := startBody{Config: r.Config(), Proxy: r.proxy}

	files, err := r.auth.Load(ctx, r.Name())
	if err != nil {
		r.SetStatus(types.StatusFailed)
		return err
	}
	if len(files) > 0 {
		body.Auth = make(map[string]string, len(files))
		for name, data := range files {
			body.Auth[name] = base64.StdEncoding.EncodeToString(data)
		}
	}

	if err := r.call(ctx, http.MethodPost, "/start", body, nil); err != nil {
		r.SetStatus(types.StatusFailed)
		return fmt.Errorf("%s worker start: %w", r.Engine(), err)
	}

	conn, _, err := r.dialer.DialContext(ctx, r.wsURL, nil)
	if err != nil {
		r.SetStatus(types.StatusFailed)
		return fmt.Errorf("%s worker events: %w", r.Engine(), err)
	}

	r.mu.Lock()
	r.conn = conn
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.readLoop(conn, done)
	r.Log().Info("Engine worker connected", zap.String("events", r.wsURL))
	return nil
}

// Stop closes the event stream and asks the worker to tear the session down
func (r *Remote) Stop(ctx context.Context) error {
	r.stopping.Store(true)
	r.SetStatus(types.StatusStopping)

	r.mu.Lock()
	conn, done := r.conn, r.done
	r.conn = nil
	r.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stop"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}

	err := r.call(ctx, http.MethodPost, "/stop", nil, nil)

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
	}

	if err != nil {
		r.SetStatus(types.StatusFailed)
		return fmt.Errorf("%s worker stop: %w", r.Engine(), err)
	}
	r.SetStatus(types.StatusStopped)
	return nil
}

// GetSessionMeInfo returns the paired account, or nil before pairing
func (r *Remote) GetSessionMeInfo(ctx context.Context) (*types.MeInfo, error) {
	var me types.MeInfo
	resp, err := r.request(ctx).SetResult(&me).Get("/me")
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode() == http.StatusNoContent || resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("worker me: %s", resp.Status())
	}
	if me.ID == "" {
		return nil, nil
	}
	return &me, nil
}

// GetEngineInfo returns worker-reported metadata
func (r *Remote) GetEngineInfo(ctx context.Context) (map[string]interface{}, error) {
	info := map[string]interface{}{}
	if err := r.call(ctx, http.MethodGet, "/info", nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

func (r *Remote) request(ctx context.Context) *resty.Request {
	return r.client.R().SetContext(ctx)
}

func (r *Remote) call(ctx context.Context, method, path string, body, result interface{}) error {
	req := r.request(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status())
	}
	return nil
}

func (r *Remote) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if r.stopping.Load() {
				return
			}
			r.Log().Warn("Engine event stream lost", zap.Error(err))
			r.SetStatus(types.StatusFailed)
			return
		}

		var f frame
		if err := sonic.Unmarshal(data, &f); err != nil || f.Event == "" {
			r.Log().Warn("Dropping malformed engine frame", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}
		r.Log().Debug("Engine frame", zap.String("event", f.Event))
		r.handleFrame(f)
	}
}

func (r *Remote) handleFrame(f frame) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch f.Event {
	case frameState:
		status, _ := f.Payload["status"].(string)
		if mapped, ok := workerStatus(status); ok {
			r.SetStatus(mapped)
		}
	case frameAuthUpdate:
		file, _ := f.Payload["file"].(string)
		encoded, _ := f.Payload["data"].(string)
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil {
			var written bool
			written, err = r.Persist(func() error {
				return r.auth.Put(ctx, r.Name(), file, data)
			})
			if !written {
				r.Log().Info("Dropping credentials update of detached session", zap.String("file", file))
				return
			}
		}
		if err != nil {
			r.Log().Warn("Failed to persist credentials", zap.String("file", file), zap.Error(err))
		}
	default:
		if f.Payload == nil {
			f.Payload = map[string]interface{}{}
		}
		r.storeMedia(ctx, f.Payload)
		r.Emit(f.Event, f.Payload)
	}
}

// storeMedia replaces an inline base64 media object with the stored descriptor
func (r *Remote) storeMedia(ctx context.Context, payload map[string]interface{}) {
	inline, ok := payload["media"].(map[string]interface{})
	if !ok || r.media == nil {
		return
	}
	encoded, _ := inline["data"].(string)
	filename, _ := inline["filename"].(string)
	if encoded == "" {
		return
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	var stored *types.Media
	if err == nil {
		stored, err = r.media.Save(ctx, data, filename)
	}
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, media.ErrMimeNotAllowed) {
			level = zap.InfoLevel
		}
		r.Log().Log(level, "Media not stored", zap.String("filename", filename), zap.Error(err))
		payload["media"] = nil
		payload["mediaError"] = err.Error()
		return
	}
	payload["media"] = stored
}

// workerStatus maps worker-reported states to session statuses
func workerStatus(s string) (types.SessionStatus, bool) {
	switch strings.ToUpper(s) {
	case "STARTING", "SCAN_QR_CODE", "CONNECTING":
		return types.StatusStarting, true
	case "RUNNING", "WORKING", "CONNECTED":
		return types.StatusRunning, true
	case "FAILED", "STOPPED", "DISCONNECTED":
		return types.StatusFailed, true
	default:
		return "", false
	}
}
