package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/catalog"
	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/session"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// PoolStats reports sandbox pool occupancy
type PoolStats interface {
	Stats() map[string]interface{}
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  *session.Manager
	catalog   *catalog.Catalog
	metrics   *monitoring.Metrics
	pool      PoolStats
	hasher    *utils.Hasher
	maxUpload int
	logger    *zap.Logger
}

// Options configures Handlers. Metrics and Pool may be nil.
type Options struct {
	Sessions  *session.Manager
	Catalog   *catalog.Catalog
	Metrics   *monitoring.Metrics
	Pool      PoolStats
	MaxUpload int
	Logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = utils.MaxSourceSize
	}
	return &Handlers{
		sessions:  opts.Sessions,
		catalog:   opts.Catalog,
		metrics:   opts.Metrics,
		pool:      opts.Pool,
		hasher:    utils.DefaultHasher(),
		maxUpload: opts.MaxUpload,
		logger:    opts.Logger,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "online",
		"service":  "Snippet Playground (Go)",
		"version":  Version,
		"profiles": profileNames(),
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Stats(),
		"catalog":  h.catalog.Stats(),
	}
	if h.pool != nil {
		body["sandbox_pool"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// CreateSession opens a session for the requested profile
func (h *Handlers) CreateSession(c *gin.Context) {
	var req types.SessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}
	if err := utils.ValidateString(req.Profile, "profile", 0, utils.MaxProfileLength, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.sessions.Create(req.Profile)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Info())
}

// ListSessions lists live sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Info())
}

// DeleteSession closes a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.Delete(sessionID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sessionID})
}

// Run runs source or a catalog snippet in a session
func (h *Handlers) Run(c *gin.Context) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req types.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if err := utils.ValidateID(req.SnippetID, "snippet_id", false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.sessions.Run(c.Request.Context(), sessionID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunUpload runs an uploaded source file in a session
func (h *Handlers) RunUpload(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	if header.Size > int64(h.maxUpload) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(h.maxUpload)+1))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(data) > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	upload, err := utils.DecodeUpload(data, h.maxUpload)
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}

	report, err := s.Run(c.Request.Context(), upload.Source)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload": upload,
		"report": report,
	})
}

// GetConsole returns the session's log. ?since=N returns entries after
// sequence N only.
func (h *Handlers) GetConsole(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	entries := s.Sink().Entries()
	if since := c.Query("since"); since != "" {
		seq, err := strconv.ParseUint(since, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a sequence number"})
			return
		}
		entries = s.Sink().Since(seq)
	}

	c.JSON(http.StatusOK, gin.H{
		"banner":        s.Sink().Banner(),
		"entries":       entries,
		"visible":       s.Sink().Visible(),
		"max_entries":   s.Sink().MaxEntries(),
		"last_sequence": s.Sink().LastSequence(),
	})
}

// ClearConsole empties the session's log
func (h *Handlers) ClearConsole(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Clear()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"banner":  s.Sink().Banner(),
	})
}

// ToggleConsole flips the session's console visibility
func (h *Handlers) ToggleConsole(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"visible": s.ToggleVisibility()})
}

// GetRender returns the latest sanitized render as HTML
func (h *Handlers) GetRender(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	html := s.Target().HTML()
	etag := h.hasher.ETag(html)
	c.Header("ETag", etag)
	c.Header("X-Render-Version", strconv.FormatUint(s.Target().Version(), 10))
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ListSnippets lists catalog snippets, optionally filtered by ?profile=
func (h *Handlers) ListSnippets(c *gin.Context) {
	profile := c.Query("profile")
	if profile != "" {
		if _, err := runner.LookupProfile(profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"snippets": h.catalog.List(profile),
		"stats":    h.catalog.Stats(),
	})
}

// GetSnippet returns one catalog snippet
func (h *Handlers) GetSnippet(c *gin.Context) {
	snippetID := c.Param("id")
	if err := utils.ValidateID(snippetID, "snippet_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snippet, err := h.catalog.Get(snippetID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snippet)
}

// session resolves :id or writes the error response
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	sessionID := c.Param("id")
	if err := utils.ValidateID(sessionID, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	s, err := h.sessions.Get(sessionID)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// fail maps domain errors onto status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, catalog.ErrSnippetNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrTooManySessions), errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrInvalidSource),
		errors.Is(err, session.ErrProfileMismatch),
		errors.Is(err, runner.ErrUnknownProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func profileNames() []string {
	profiles := runner.Profiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}
