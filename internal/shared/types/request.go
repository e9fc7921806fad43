package types

// StartRequest starts a session
type StartRequest struct {
	Name   string         `json:"name" binding:"required"`
	Config *SessionConfig `json:"config,omitempty"`
}

// StopRequest stops a session, optionally purging stored credentials
type StopRequest struct {
	Name   string `json:"name" binding:"required"`
	Logout bool   `json:"logout"`
}

// LogoutRequest purges stored credentials of a session
type LogoutRequest struct {
	Name string `json:"name" binding:"required"`
}
