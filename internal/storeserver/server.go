package storeserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"w3session/internal/crypto"
	"w3session/internal/domain"
	"w3session/internal/relay"
)

// Server exposes a Backend over the session store wire contract.
type Server struct {
	backend Backend
	log     zerolog.Logger
}

func New(b Backend, log zerolog.Logger) *Server {
	return &Server{backend: b, log: log.With().Str("component", "storeserver").Logger()}
}

// Router returns an engine with recovery, access logging and all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.POST("/store/set", s.set)
	r.POST("/store/get", s.get)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) set(c *gin.Context) {
	var req domain.SetRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Key == "" || req.Data == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key, data and signature are required"})
		return
	}

	ok, err := crypto.Verify(req.Key, []byte(req.Data), req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		s.log.Warn().Str("key", crypto.Fingerprint(req.Key)).Msg("signature rejected")
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	var ttl int64
	if req.Timeout != "" {
		if ttl, err = strconv.ParseInt(req.Timeout, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timeout must be an integer"})
			return
		}
	}
	ttl = relay.ClampTTL(ttl)

	rec := Record{Data: req.Data, AllowedOrigin: req.AllowedOrigin}
	if err := s.backend.Set(c.Request.Context(), req.Key, rec, time.Duration(ttl)*time.Second); err != nil {
		s.log.Error().Err(err).Msg("backend set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, domain.SetResponse{Message: "success"})
}

func (s *Server) get(c *gin.Context) {
	var req domain.GetRequest
	if err := c.ShouldBind(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	rec, err := s.backend.Get(c.Request.Context(), req.Key)
	if err != nil {
		s.log.Error().Err(err).Msg("backend get")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if !originAllowed(rec.AllowedOrigin, c.GetHeader("origin")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}
	c.JSON(http.StatusOK, domain.StoreEntry{Message: rec.Data})
}

// originAllowed: an empty or "*" allowance admits any origin.
func originAllowed(allowed, origin string) bool {
	return allowed == "" || allowed == "*" || allowed == origin
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("remote", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
