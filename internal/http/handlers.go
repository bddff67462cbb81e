package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/careerlens/assessment-server/internal/questionbank"
	"github.com/careerlens/assessment-server/internal/service"
)

// Handlers exposes the assessment engine over JSON.
type Handlers struct {
	sessions    *service.SessionManager
	submissions SubmissionService
	dashboards  DashboardService
	logger      *zap.Logger
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(sessions *service.SessionManager, submissions SubmissionService, dashboards DashboardService, logger *zap.Logger) *Handlers {
	if sessions == nil || submissions == nil || dashboards == nil {
		panic("nil dependency provided to NewHandlers")
	}
	return &Handlers{
		sessions:    sessions,
		submissions: submissions,
		dashboards:  dashboards,
		logger:      logger.Named("http-handler"),
	}
}

func (h *Handlers) handleError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "not found", "code": "not_found"}})
	case errors.Is(err, service.ErrSessionFinished), errors.Is(err, service.ErrSessionNotStarted):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": err.Error(), "code": "invalid_state"}})
	case errors.Is(err, service.ErrUnanswered),
		errors.Is(err, service.ErrValueOutOfRange),
		errors.Is(err, service.ErrIndexOutOfRange),
		errors.Is(err, service.ErrUnknownQuestion),
		errors.Is(err, service.ErrInvalidItemType),
		errors.Is(err, service.ErrEmptyAnswerSet):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"message": err.Error(), "code": "invalid_request"}})
	case errors.Is(err, service.ErrWriteFailed):
		h.logger.Error("persistence failure", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "result could not be saved", "code": "write_failed"}})
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "internal error", "code": "internal"}})
	}
}

// ListQuestions returns the fixed questionnaire.
func (h *Handlers) ListQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": questionbank.Questions()})
}

// CreateSession registers a new test session for the current identity
// (user or guest) and returns its token.
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.sessions.Create(userID(c))
	c.JSON(http.StatusCreated, s.View())
}

// GetSession returns a session snapshot.
func (h *Handlers) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("token"))
	if err != nil {
		h.handleError(c, "GetSession", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// StartSession begins the test and arms the countdown.
func (h *Handlers) StartSession(c *gin.Context) {
	token := c.Param("token")
	if err := h.sessions.Start(token); err != nil {
		h.handleError(c, "StartSession", err)
		return
	}
	s, err := h.sessions.Get(token)
	if err != nil {
		h.handleError(c, "StartSession", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

type answerRequest struct {
	QuestionID int `json:"question_id" binding:"required"`
	Value      int `json:"value" binding:"required"`
}

// SubmitAnswer records or overwrites one Likert response.
func (h *Handlers) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error(), "code": "bad_request"}})
		return
	}
	s, err := h.sessions.Get(c.Param("token"))
	if err != nil {
		h.handleError(c, "SubmitAnswer", err)
		return
	}
	if err := s.Answer(req.QuestionID, req.Value); err != nil {
		h.handleError(c, "SubmitAnswer", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

type navigateRequest struct {
	Action string `json:"action" binding:"required"`
	Index  int    `json:"index"`
}

// Navigate moves the current-question pointer. Advancing past the last
// question finalizes the session.
func (h *Handlers) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error(), "code": "bad_request"}})
		return
	}
	s, err := h.sessions.Get(c.Param("token"))
	if err != nil {
		h.handleError(c, "Navigate", err)
		return
	}

	switch req.Action {
	case "next":
		_, err = s.Next(c.Request.Context())
	case "prev":
		err = s.Prev()
	case "jump":
		err = s.JumpTo(req.Index)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "unknown action", "code": "bad_request"}})
		return
	}
	if err != nil {
		h.handleError(c, "Navigate", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// SubmitSession is the manual finish trigger. The response always carries
// the computed outcome; submit_failed marks a persistence failure the
// client can retry later.
func (h *Handlers) SubmitSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("token"))
	if err != nil {
		h.handleError(c, "SubmitSession", err)
		return
	}
	if err := s.Finish(c.Request.Context()); err != nil {
		h.handleError(c, "SubmitSession", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// ResetSession discards all answers and the timer.
func (h *Handlers) ResetSession(c *gin.Context) {
	token := c.Param("token")
	if err := h.sessions.Reset(token); err != nil {
		h.handleError(c, "ResetSession", err)
		return
	}
	s, err := h.sessions.Get(token)
	if err != nil {
		h.handleError(c, "ResetSession", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

type saveResultRequest struct {
	Token string `json:"token" binding:"required"`
}

// SaveGuestResult promotes a guest session's computed result into a
// durable record for the signed-in user. This is the only migration path;
// signing in never moves a result implicitly.
func (h *Handlers) SaveGuestResult(c *gin.Context) {
	var req saveResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error(), "code": "bad_request"}})
		return
	}
	ref, err := h.submissions.SaveGuestResult(c.Request.Context(), req.Token, userID(c))
	if err != nil {
		h.handleError(c, "SaveGuestResult", err)
		return
	}
	c.JSON(http.StatusCreated, ref)
}

// GetResult returns one durable result owned by the caller.
func (h *Handlers) GetResult(c *gin.Context) {
	result, err := h.submissions.GetResult(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		h.handleError(c, "GetResult", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type toggleBookmarkRequest struct {
	ItemType string `json:"item_type" binding:"required"`
	ItemID   int64  `json:"item_id" binding:"required"`
}

// ToggleBookmark flips a saved major/career for the current identity:
// users write the durable store, guests their local store.
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	var req toggleBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error(), "code": "bad_request"}})
		return
	}

	owner := userID(c)
	durable := owner != ""
	if !durable {
		owner = guestToken(c)
	}
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "no identity or guest session", "code": "bad_request"}})
		return
	}

	saved, err := h.dashboards.ToggleBookmark(c.Request.Context(), owner, durable, req.ItemType, req.ItemID)
	if err != nil {
		h.handleError(c, "ToggleBookmark", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// GetDashboard returns the freshly computed dashboard snapshot for the
// signed-in user, merging local bookmarks when a guest header is present.
func (h *Handlers) GetDashboard(c *gin.Context) {
	snapshot, err := h.dashboards.BuildDashboard(c.Request.Context(), userID(c), guestToken(c))
	if err != nil {
		h.handleError(c, "GetDashboard", err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Healthz is the liveness probe.
func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
