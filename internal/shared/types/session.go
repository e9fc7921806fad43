package types

import (
	"fmt"
	"net/url"
	"strings"
)

// SessionStatus is the lifecycle state of a session as reported by its engine
type SessionStatus string

const (
	StatusStopped  SessionStatus = "STOPPED"
	StatusStarting SessionStatus = "STARTING"
	StatusRunning  SessionStatus = "RUNNING"
	StatusStopping SessionStatus = "STOPPING"
	StatusFailed   SessionStatus = "FAILED"
)

// HasEngine reports whether a session in this status owns a live engine handle
func (s SessionStatus) HasEngine() bool {
	switch s {
	case StatusStarting, StatusRunning, StatusStopping:
		return true
	default:
		return false
	}
}

// SessionConfig holds per-session configuration supplied on start
type SessionConfig struct {
	Debug    bool                   `json:"debug" yaml:"debug"`
	Webhooks []WebhookConfig        `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
	Proxy    *ProxyConfig           `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Metadata map[string]string      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Engine   map[string]interface{} `json:"engine,omitempty" yaml:"engine,omitempty"`
}

// ProxyConfig describes the outbound proxy used by an engine
type ProxyConfig struct {
	Server   string `json:"server" yaml:"server" binding:"required"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// URL builds the proxy URL, defaulting to the http scheme and embedding credentials
func (p *ProxyConfig) URL() (*url.URL, error) {
	server := p.Server
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy server %q: %w", p.Server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy server %q: missing host", p.Server)
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

// Clone returns a deep copy of the proxy settings
func (p *ProxyConfig) Clone() *ProxyConfig {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// SessionDTO is the snapshot returned from start
type SessionDTO struct {
	Name   string        `json:"name"`
	Status SessionStatus `json:"status"`
	Config SessionConfig `json:"config"`
}

// MeInfo identifies the account behind a connected session
type MeInfo struct {
	ID       string `json:"id"`
	PushName string `json:"pushName,omitempty"`
}

// SessionInfo describes a session for listing endpoints.
// Me and Engine are nil/empty when the engine could not be queried.
type SessionInfo struct {
	SessionDTO
	Me     *MeInfo                `json:"me"`
	Engine map[string]interface{} `json:"engine"`
}

// Media describes a stored media blob
type Media struct {
	Key      string `json:"key"`
	Mimetype string `json:"mimetype"`
	Filename string `json:"filename,omitempty"`
	Size     int    `json:"size"`
}
