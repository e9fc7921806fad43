package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// SessionService is the session manager as seen by handlers
type SessionService interface {
	Start(ctx context.Context, req types.StartRequest) (*types.SessionDTO, error)
	Stop(ctx context.Context, req types.StopRequest) error
	Logout(ctx context.Context, req types.LogoutRequest) error
	GetSessions(ctx context.Context, all bool) []types.SessionInfo
	GetSessionInfo(ctx context.Context, name string) *types.SessionInfo
	GetMe(ctx context.Context, name string) (*types.MeInfo, error)
	ListMedia(ctx context.Context, name string) ([]string, error)
	ReadMedia(ctx context.Context, name, file string) ([]byte, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  SessionService
	engine    string
	log       *logging.Logger
	startedAt time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(sessions SessionService, engine string, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{
		sessions:  sessions,
		engine:    engine,
		log:       log,
		startedAt: time.Now(),
	}
}

// Register mounts the routes on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api/sessions")
	api.POST("/start", h.Start)
	api.POST("/stop", h.Stop)
	api.POST("/logout", h.Logout)
	api.GET("", h.ListSessions)
	api.GET("/:session", h.GetSession)
	api.GET("/:session/me", h.GetMe)
	api.GET("/:session/media", h.ListMedia)
	api.GET("/:session/media/:file", h.GetMedia)
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"engine": h.engine,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Start starts the session
func (h *Handlers) Start(c *gin.Context) {
	var req types.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dto, err := h.sessions.Start(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// Stop stops the session
func (h *Handlers) Stop(c *gin.Context) {
	var req types.StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.sessions.Stop(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout wipes stored credentials; the session stops in the background
func (h *Handlers) Logout(c *gin.Context) {
	var req types.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSessions lists sessions; ?all=true includes the stopped slot
func (h *Handlers) ListSessions(c *gin.Context) {
	all, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	c.JSON(http.StatusOK, h.sessions.GetSessions(c.Request.Context(), all))
}

// GetSession returns one session's info
func (h *Handlers) GetSession(c *gin.Context) {
	name := c.Param("session")

	info := h.sessions.GetSessionInfo(c.Request.Context(), name)
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetMe returns the account paired with the session, null before pairing
func (h *Handlers) GetMe(c *gin.Context) {
	me, err := h.sessions.GetMe(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

// ListMedia lists the keys of media stored for the session
func (h *Handlers) ListMedia(c *gin.Context) {
	keys, err := h.sessions.ListMedia(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"media": keys})
}

// GetMedia serves one stored media file by the last segment of its key
func (h *Handlers) GetMedia(c *gin.Context) {
	data, err := h.sessions.ReadMedia(c.Request.Context(), c.Param("session"), c.Param("file"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
