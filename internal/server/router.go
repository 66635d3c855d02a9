package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/plenumlab/plenum/internal/activity"
	"github.com/plenumlab/plenum/internal/auth"
	"github.com/plenumlab/plenum/internal/meetings"
	"github.com/plenumlab/plenum/internal/motions"
	"github.com/plenumlab/plenum/internal/users"
	"github.com/plenumlab/plenum/internal/votes"
	"go.uber.org/zap"
)

const (
	userIDContextKey  = "plenum_user_id"
	isAdminContextKey = "plenum_is_admin"
	watcherContextKey = "plenum_is_watcher"
)

var (
	errMissingTokenManager    = errors.New("token manager dependency required")
	errMissingUsersService    = errors.New("users service dependency required")
	errMissingMeetingsService = errors.New("meetings service dependency required")
	errMissingMotionsService  = errors.New("motions service dependency required")
	errMissingVotesService    = errors.New("votes service dependency required")
	errInvalidAuthorization   = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates bearer tokens.
type TokenManager interface {
	IssueToken(ctx context.Context, principal auth.Principal) (string, int64, error)
	ValidateToken(token string) (auth.Principal, error)
}

// Dependencies wires the HTTP layer to the election services.
type Dependencies struct {
	TokenManager     TokenManager
	UsersService     *users.Service
	MeetingsService  *meetings.Service
	MotionsService   *motions.Service
	VotesService     *votes.Service
	ActivityRecorder *activity.Recorder
	Clock            func() time.Time
	Logger           *zap.Logger
}

// NewHTTPHandler builds the gin handler serving the election API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.UsersService == nil {
		return nil, errMissingUsersService
	}
	if deps.MeetingsService == nil {
		return nil, errMissingMeetingsService
	}
	if deps.MotionsService == nil {
		return nil, errMissingMotionsService
	}
	if deps.VotesService == nil {
		return nil, errMissingVotesService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:   deps.TokenManager,
		users:    deps.UsersService,
		meetings: deps.MeetingsService,
		motions:  deps.MotionsService,
		votes:    deps.VotesService,
		recorder: deps.ActivityRecorder,
		clock:    clock,
		logger:   logger,
	}

	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.Use(handler.recordActivity)

	protected.GET("/me", handler.handleCurrentUser)
	protected.GET("/motions/:motionID/voting", handler.handleMotionForVoting)
	protected.POST("/motions/:motionID/vote", handler.handleCastVote)
	protected.GET("/motions/:motionID/result", handler.requireWatcher, handler.handleMotionResult)
	protected.GET("/meetings/:meetingID", handler.requireWatcher, handler.handleGetMeeting)
	protected.GET("/meetings/:meetingID/quorum", handler.requireWatcher, handler.handleQuorumReport)
	protected.GET("/meetings/:meetingID/motions", handler.requireWatcher, handler.handleListMotions)

	admin := protected.Group("/")
	admin.Use(handler.requireAdmin)
	admin.POST("/meetings", handler.handleCreateMeeting)
	admin.POST("/meetings/:meetingID/quorum/call", handler.handleCallQuorum)
	admin.DELETE("/meetings/:meetingID/quorum/call", handler.handleClearQuorum)
	admin.POST("/pools", handler.handleCreatePool)
	admin.POST("/pools/:poolID/members", handler.handleAddPoolMember)
	admin.DELETE("/pools/:poolID/members/:userID", handler.handleRemovePoolMember)
	admin.POST("/motions", handler.handleCreateMotion)
	admin.PATCH("/motions/:motionID/status", handler.handleUpdateStatus)
	admin.PUT("/motions/:motionID/end-override", handler.handleSetEndOverride)
	admin.POST("/motions/:motionID/choices", handler.handleAddChoice)
	admin.PATCH("/motions/:motionID/choices/:choiceID", handler.handleRenameChoice)
	admin.DELETE("/motions/:motionID/choices/:choiceID", handler.handleDeleteChoice)
	admin.PUT("/motions/:motionID/choices/order", handler.handleReorderChoices)

	return router, nil
}

type httpHandler struct {
	tokens   TokenManager
	users    *users.Service
	meetings *meetings.Service
	motions  *motions.Service
	votes    *votes.Service
	recorder *activity.Recorder
	clock    func() time.Time
	logger   *zap.Logger
}

// authorizeRequest resolves the bearer token to a principal and stores it on
// the request context.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	principal, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, principal.UserID)
	c.Set(isAdminContextKey, principal.IsAdmin)
	c.Set(watcherContextKey, principal.IsWatcher)
	c.Next()
}

// recordActivity feeds the quorum calculator's input stream. The dispatch is
// fire-and-forget; a broken activity log never fails the request.
func (h *httpHandler) recordActivity(c *gin.Context) {
	if h.recorder != nil {
		h.recorder.Record(c.GetString(userIDContextKey), c.Request.URL.Path)
	}
	c.Next()
}

func (h *httpHandler) requireAdmin(c *gin.Context) {
	if !c.GetBool(isAdminContextKey) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_required"})
		return
	}
	c.Next()
}

// requireWatcher admits watchers and admins to read-only reports.
func (h *httpHandler) requireWatcher(c *gin.Context) {
	if !c.GetBool(watcherContextKey) && !c.GetBool(isAdminContextKey) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "watcher_required"})
		return
	}
	c.Next()
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	var ineligible *votes.IneligibleError
	var invalidTransition *motions.InvalidTransitionError
	var validation *votes.ValidationError

	switch {
	case errors.Is(err, motions.ErrMotionNotFound),
		errors.Is(err, motions.ErrChoiceNotFound),
		errors.Is(err, meetings.ErrMeetingNotFound),
		errors.Is(err, meetings.ErrPoolNotFound),
		errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, votes.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": "already_voted"})
	case errors.Is(err, motions.ErrTransitionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "status_conflict"})
	case errors.Is(err, motions.ErrChoicesLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "choices_locked", "detail": err.Error()})
	case errors.Is(err, votes.ErrResultsNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"error": "not_completed", "detail": err.Error()})
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition", "detail": invalidTransition.Error()})
	case errors.As(err, &ineligible):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "reason": string(ineligible.Reason)})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_vote", "detail": validation.Error()})
	case errors.Is(err, motions.ErrOverrideNotAllowed),
		errors.Is(err, motions.ErrInvalidMotion),
		errors.Is(err, meetings.ErrInvalidMeeting):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
