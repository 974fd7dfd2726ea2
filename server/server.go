// Package server exposes the REST surface consumed by the chat UI. It is a
// thin layer: request decoding, error classification into status codes, and
// delegation to the conversation manager. All dependencies arrive through an
// explicit Server value constructed once at startup; there is no package
// level mutable state.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mathtutor/config"
	"mathtutor/conversation"
	"mathtutor/core"
	"mathtutor/logging"
	"mathtutor/registry"
)

// Server carries the request handlers and their collaborators. Conversation,
// registry and platform are nil when the agent platform is unconfigured; the
// affected endpoints answer 503 instead of crashing at startup.
type Server struct {
	cfg          *config.Config
	conv         *conversation.Manager
	registry     *registry.Registry
	platform     core.PlatformClient
	storageReady bool
	logger       logging.Logger
	metrics      *Metrics
}

// Options configure optional server collaborators.
type Options struct {
	// StorageReady reports whether the blob store came up at startup.
	StorageReady bool
	// Logger defaults to a NoOpLogger when nil.
	Logger logging.Logger
}

// New constructs a Server. conv, reg and platform may all be nil for a
// partially configured deployment.
func New(cfg *config.Config, conv *conversation.Manager, reg *registry.Registry, platform core.PlatformClient, optFns ...func(o *Options)) *Server {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		cfg:          cfg,
		conv:         conv,
		registry:     reg,
		platform:     platform,
		storageReady: opts.StorageReady,
		logger:       logging.OrNoOp(opts.Logger),
		metrics:      NewMetrics(),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.metrics.middleware())

	// The chat widget is served from a different origin.
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	r.Use(cors.New(corsCfg))

	r.POST("/start_chat", s.startChat)
	r.POST("/chat", s.chat)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	// Administrative endpoints, unavailable in production.
	r.DELETE("/cleanup_agent", s.adminGate, s.cleanupAgent)
	r.POST("/reset_agent", s.adminGate, s.resetAgent)

	return r
}

// requestID assigns a correlation id to every request, honoring one supplied
// by an upstream proxy.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

type chatRequest struct {
	ThreadID string `json:"thread_id" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	ImageURL string `json:"image_url,omitempty"`
}

type startChatResponse struct {
	ThreadID string `json:"thread_id"`
	AgentID  string `json:"agent_id,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) startChat(c *gin.Context) {
	if s.conv == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "agent platform is not configured"})
		return
	}
	threadID, err := s.conv.Start(c.Request.Context())
	if err != nil {
		s.logger.Error("start_chat failed", "error", err)
		c.JSON(http.StatusBadGateway, errorResponse{Detail: "agent unavailable: " + err.Error()})
		return
	}
	resp := startChatResponse{ThreadID: threadID}
	if id, ok := s.registry.Cached(); ok {
		resp.AgentID = id
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) chat(c *gin.Context) {
	if s.conv == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "agent platform is not configured"})
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "thread_id and message are required"})
		return
	}

	start := time.Now()
	reply, err := s.conv.Send(c.Request.Context(), req.ThreadID, req.Message)
	if err != nil {
		s.replyError(c, req.ThreadID, err)
		return
	}
	s.metrics.observeTurn(start, reply.ImageURL != "")
	c.JSON(http.StatusOK, chatResponse{Reply: reply.Text, ImageURL: reply.ImageURL})
}

// replyError classifies a Send failure into the status codes the UI
// distinguishes: expired thread (restart the conversation), failed run
// (platform-stated cause), and everything else.
func (s *Server) replyError(c *gin.Context, threadID string, err error) {
	var rf *core.RunFailedError
	switch {
	case errors.Is(err, core.ErrUnknownThread):
		c.JSON(http.StatusNotFound, errorResponse{Detail: "conversation session expired or unknown; start a new chat"})
	case errors.As(err, &rf):
		s.logger.Error("run failed", "request_id", c.GetString("request_id"), "thread_id", threadID, "cause", rf.Cause)
		c.JSON(http.StatusBadGateway, errorResponse{Detail: rf.Error()})
	default:
		s.logger.Error("chat failed", "request_id", c.GetString("request_id"), "thread_id", threadID, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"agent_ready":   s.conv != nil,
		"storage_ready": s.storageReady,
	})
}

// adminGate rejects administrative calls in production.
func (s *Server) adminGate(c *gin.Context) {
	if s.cfg.Production() {
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Detail: "administrative endpoints are disabled in production"})
	}
}

func (s *Server) cleanupAgent(c *gin.Context) {
	if s.conv == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "agent platform is not configured"})
		return
	}
	agentID, ok := s.registry.Cached()
	if !ok {
		// Pure teardown: look up only, never provision.
		var err error
		agentID, err = s.registry.Find(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, errorResponse{Detail: "resolve agent: " + err.Error()})
			return
		}
	}
	if agentID != "" {
		if err := s.platform.DeleteAgent(c.Request.Context(), agentID); err != nil && !errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusBadGateway, errorResponse{Detail: "delete agent: " + err.Error()})
			return
		}
		s.logger.Info("remote agent deleted", "agent_id", agentID)
	}
	s.registry.Reset()
	s.conv.ResetLocal()
	c.JSON(http.StatusOK, gin.H{"deleted": agentID})
}

func (s *Server) resetAgent(c *gin.Context) {
	if s.conv == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "agent platform is not configured"})
		return
	}
	s.registry.Reset()
	s.conv.ResetLocal()
	c.JSON(http.StatusOK, gin.H{"reset": true})
}
