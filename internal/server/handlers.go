package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plenumlab/plenum/internal/auth"
	"github.com/plenumlab/plenum/internal/meetings"
	"github.com/plenumlab/plenum/internal/motions"
	"github.com/plenumlab/plenum/internal/users"
	"github.com/plenumlab/plenum/internal/votes"
	"go.uber.org/zap"
)

type loginRequestPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	IsWatcher   bool   `json:"is_watcher"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Authenticate(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		h.respondError(c, err)
		return
	}

	principal := auth.Principal{
		UserID:    account.UserID,
		IsAdmin:   account.IsAdmin,
		IsWatcher: account.IsWatcher,
	}
	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), principal)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		UserID:      account.UserID,
		DisplayName: account.DisplayName,
		IsAdmin:     account.IsAdmin,
		IsWatcher:   account.IsWatcher,
	})
}

// handleCurrentUser resolves the bearer principal back to its account. A token
// outliving its account maps to not found rather than a broken profile.
func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	account, err := h.users.GetUser(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      account.UserID,
		"username":     account.Username,
		"display_name": account.DisplayName,
		"is_admin":     account.IsAdmin,
		"is_watcher":   account.IsWatcher,
	})
}

type choicePayload struct {
	ChoiceID  string `json:"choice_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type motionVotingPayload struct {
	MotionID         string          `json:"motion_id"`
	MeetingID        string          `json:"meeting_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Status           string          `json:"status"`
	SeatCount        int             `json:"seat_count"`
	Choices          []choicePayload `json:"choices"`
	VotingEndsAt     *time.Time      `json:"voting_ends_at,omitempty"`
	RemainingSeconds int64           `json:"remaining_s"`
	OvertimeSeconds  int64           `json:"overtime_s"`
	Countdown        string          `json:"countdown,omitempty"`
	Urgent           bool            `json:"urgent"`
	Expired          bool            `json:"expired"`
	CanVote          bool            `json:"can_vote"`
	Reason           string          `json:"reason,omitempty"`
	HasVoted         bool            `json:"has_voted"`
}

func (h *httpHandler) handleMotionForVoting(c *gin.Context) {
	view, err := h.votes.GetMotionForVoting(c.Request.Context(), c.Param("motionID"), c.GetString(userIDContextKey))
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload := motionVotingPayload{
		MotionID:    view.Motion.MotionID,
		MeetingID:   view.Motion.MeetingID,
		Name:        view.Motion.Name,
		Description: view.Motion.Description,
		Status:      string(view.Motion.Status),
		SeatCount:   view.Motion.SeatCount,
		Choices:     choicePayloads(view.Motion.Choices),
		CanVote:     view.CanVote,
		Reason:      string(view.Reason),
		HasVoted:    view.HasVoted,
	}
	if view.Window.Started() {
		payload.VotingEndsAt = view.Window.EndsAt
		payload.RemainingSeconds = int64(view.Window.Remaining / time.Second)
		payload.OvertimeSeconds = int64(view.Window.Overtime / time.Second)
		payload.Urgent = view.Window.Urgent()
		payload.Expired = view.Window.Expired()
		if view.Window.Remaining > 0 {
			payload.Countdown = motions.FormatCountdown(view.Window.Remaining)
		} else {
			payload.Countdown = motions.FormatCountdown(view.Window.Overtime)
		}
	}
	c.JSON(http.StatusOK, payload)
}

type castVoteRequestPayload struct {
	ChoiceIDs []string `json:"choice_ids"`
	Abstain   bool     `json:"abstain"`
}

type castVoteResponsePayload struct {
	VoteID    string    `json:"vote_id"`
	MotionID  string    `json:"motion_id"`
	Abstain   bool      `json:"abstain"`
	ChoiceIDs []string  `json:"choice_ids"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *httpHandler) handleCastVote(c *gin.Context) {
	var request castVoteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	vote, err := h.votes.CastVote(c.Request.Context(), c.GetString(userIDContextKey), c.Param("motionID"), votes.Ballot{
		ChoiceIDs: request.ChoiceIDs,
		Abstain:   request.Abstain,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	chosen := make([]string, 0, len(vote.Choices))
	for _, selection := range vote.Choices {
		chosen = append(chosen, selection.ChoiceID)
	}
	c.JSON(http.StatusCreated, castVoteResponsePayload{
		VoteID:    vote.VoteID,
		MotionID:  vote.MotionID,
		Abstain:   vote.Abstain,
		ChoiceIDs: chosen,
		CreatedAt: vote.CreatedAt,
	})
}

type tallyLinePayload struct {
	ChoiceID  string `json:"choice_id"`
	Name      string `json:"name"`
	VoteCount int64  `json:"vote_count"`
	IsWinner  bool   `json:"is_winner"`
}

type tallyResponsePayload struct {
	MotionID     string             `json:"motion_id"`
	SeatCount    int                `json:"seat_count"`
	TotalBallots int64              `json:"total_ballots"`
	AbstainCount int64              `json:"abstain_count"`
	Results      []tallyLinePayload `json:"results"`
}

func (h *httpHandler) handleMotionResult(c *gin.Context) {
	tally, err := h.votes.MotionResult(c.Request.Context(), c.Param("motionID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	results := make([]tallyLinePayload, 0, len(tally.Lines))
	for _, line := range tally.Lines {
		results = append(results, tallyLinePayload{
			ChoiceID:  line.ChoiceID,
			Name:      line.Name,
			VoteCount: line.VoteCount,
			IsWinner:  line.IsWinner,
		})
	}
	c.JSON(http.StatusOK, tallyResponsePayload{
		MotionID:     tally.MotionID,
		SeatCount:    tally.SeatCount,
		TotalBallots: tally.TotalBallots,
		AbstainCount: tally.AbstainCount,
		Results:      results,
	})
}

type createMeetingRequestPayload struct {
	Name               string    `json:"name"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	QuorumVotingPoolID string    `json:"quorum_voting_pool_id"`
}

type meetingResponsePayload struct {
	MeetingID          string     `json:"meeting_id"`
	Name               string     `json:"name"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	QuorumVotingPoolID string     `json:"quorum_voting_pool_id"`
	QuorumCalledAt     *time.Time `json:"quorum_called_at,omitempty"`
}

func meetingPayload(meeting meetings.Meeting) meetingResponsePayload {
	return meetingResponsePayload{
		MeetingID:          meeting.MeetingID,
		Name:               meeting.Name,
		StartDate:          meeting.StartDate,
		EndDate:            meeting.EndDate,
		QuorumVotingPoolID: meeting.QuorumVotingPoolID,
		QuorumCalledAt:     meeting.QuorumCalledAt,
	}
}

func (h *httpHandler) handleCreateMeeting(c *gin.Context) {
	var request createMeetingRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	meeting, err := h.meetings.CreateMeeting(c.Request.Context(), meetings.CreateMeetingRequest{
		Name:               request.Name,
		StartDate:          request.StartDate,
		EndDate:            request.EndDate,
		QuorumVotingPoolID: request.QuorumVotingPoolID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meetingPayload(meeting))
}

func (h *httpHandler) handleGetMeeting(c *gin.Context) {
	meeting, err := h.meetings.GetMeeting(c.Request.Context(), c.Param("meetingID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meetingPayload(meeting))
}

type quorumResponsePayload struct {
	MeetingID             string    `json:"meeting_id"`
	CutoffTime            time.Time `json:"cutoff_time"`
	Frozen                bool      `json:"frozen"`
	TotalEligibleVoters   int64     `json:"total_eligible_voters"`
	ActiveVoterCount      int64     `json:"active_voter_count"`
	ActiveVoterPercentage float64   `json:"active_voter_percentage"`
}

func (h *httpHandler) handleQuorumReport(c *gin.Context) {
	report, err := h.meetings.QuorumReport(c.Request.Context(), c.Param("meetingID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quorumResponsePayload{
		MeetingID:             report.MeetingID,
		CutoffTime:            report.CutoffTime,
		Frozen:                report.Frozen,
		TotalEligibleVoters:   report.TotalEligibleVoters,
		ActiveVoterCount:      report.ActiveVoterCount,
		ActiveVoterPercentage: report.ActiveVoterPercentage,
	})
}

type callQuorumRequestPayload struct {
	CalledAt *time.Time `json:"called_at"`
}

func (h *httpHandler) handleCallQuorum(c *gin.Context) {
	var request callQuorumRequestPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
	}
	calledAt := h.clock().UTC()
	if request.CalledAt != nil {
		calledAt = request.CalledAt.UTC()
	}
	if err := h.meetings.CallQuorum(c.Request.Context(), c.Param("meetingID"), &calledAt); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleClearQuorum(c *gin.Context) {
	if err := h.meetings.CallQuorum(c.Request.Context(), c.Param("meetingID"), nil); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createPoolRequestPayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleCreatePool(c *gin.Context) {
	var request createPoolRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	pool, err := h.meetings.CreatePool(c.Request.Context(), request.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pool_id": pool.PoolID, "name": pool.Name})
}

type poolMemberRequestPayload struct {
	UserID string `json:"user_id"`
}

func (h *httpHandler) handleAddPoolMember(c *gin.Context) {
	var request poolMemberRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.meetings.AddPoolMember(c.Request.Context(), c.Param("poolID"), request.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleRemovePoolMember(c *gin.Context) {
	if err := h.meetings.RemovePoolMember(c.Request.Context(), c.Param("poolID"), c.Param("userID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createMotionRequestPayload struct {
	MeetingID       string   `json:"meeting_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	DurationMinutes int      `json:"duration_minutes"`
	SeatCount       int      `json:"seat_count"`
	VotingPoolID    *string  `json:"voting_pool_id"`
	Choices         []string `json:"choices"`
}

type motionResponsePayload struct {
	MotionID        string          `json:"motion_id"`
	MeetingID       string          `json:"meeting_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	SeatCount       int             `json:"seat_count"`
	Status          string          `json:"status"`
	VotingPoolID    *string         `json:"voting_pool_id,omitempty"`
	VotingStartedAt *time.Time      `json:"voting_started_at,omitempty"`
	VotingEndedAt   *time.Time      `json:"voting_ended_at,omitempty"`
	EndOverride     *time.Time      `json:"end_override,omitempty"`
	Choices         []choicePayload `json:"choices"`
}

func motionPayload(motion motions.Motion) motionResponsePayload {
	return motionResponsePayload{
		MotionID:        motion.MotionID,
		MeetingID:       motion.MeetingID,
		Name:            motion.Name,
		Description:     motion.Description,
		DurationMinutes: motion.DurationMinutes,
		SeatCount:       motion.SeatCount,
		Status:          string(motion.Status),
		VotingPoolID:    motion.VotingPoolID,
		VotingStartedAt: motion.VotingStartedAt,
		VotingEndedAt:   motion.VotingEndedAt,
		EndOverride:     motion.EndOverride,
		Choices:         choicePayloads(motion.Choices),
	}
}

func choicePayloads(choices []motions.Choice) []choicePayload {
	result := make([]choicePayload, 0, len(choices))
	for _, choice := range choices {
		result = append(result, choicePayload{
			ChoiceID:  choice.ChoiceID,
			Name:      choice.Name,
			SortOrder: choice.SortOrder,
		})
	}
	return result
}

func (h *httpHandler) handleCreateMotion(c *gin.Context) {
	var request createMotionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	motion, err := h.motions.CreateMotion(c.Request.Context(), motions.CreateMotionRequest{
		MeetingID:       request.MeetingID,
		Name:            request.Name,
		Description:     request.Description,
		DurationMinutes: request.DurationMinutes,
		SeatCount:       request.SeatCount,
		VotingPoolID:    request.VotingPoolID,
		ChoiceNames:     request.Choices,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, motionPayload(motion))
}

func (h *httpHandler) handleListMotions(c *gin.Context) {
	list, err := h.motions.ListMeetingMotions(c.Request.Context(), c.Param("meetingID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	payload := make([]motionResponsePayload, 0, len(list))
	for _, motion := range list {
		payload = append(payload, motionPayload(motion))
	}
	c.JSON(http.StatusOK, gin.H{"motions": payload})
}

type updateStatusRequestPayload struct {
	Status      string     `json:"status"`
	EndOverride *time.Time `json:"end_override"`
}

func (h *httpHandler) handleUpdateStatus(c *gin.Context) {
	var request updateStatusRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	status, err := motions.ParseStatus(request.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}
	motion, err := h.motions.UpdateStatus(c.Request.Context(), c.Param("motionID"), status, request.EndOverride)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, motionPayload(motion))
}

type endOverrideRequestPayload struct {
	EndOverride *time.Time `json:"end_override"`
}

func (h *httpHandler) handleSetEndOverride(c *gin.Context) {
	var request endOverrideRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	motion, err := h.motions.SetEndOverride(c.Request.Context(), c.Param("motionID"), request.EndOverride)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, motionPayload(motion))
}

type choiceNameRequestPayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleAddChoice(c *gin.Context) {
	var request choiceNameRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	choice, err := h.motions.AddChoice(c.Request.Context(), c.Param("motionID"), request.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, choicePayload{
		ChoiceID:  choice.ChoiceID,
		Name:      choice.Name,
		SortOrder: choice.SortOrder,
	})
}

func (h *httpHandler) handleRenameChoice(c *gin.Context) {
	var request choiceNameRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	choice, err := h.motions.RenameChoice(c.Request.Context(), c.Param("motionID"), c.Param("choiceID"), request.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, choicePayload{
		ChoiceID:  choice.ChoiceID,
		Name:      choice.Name,
		SortOrder: choice.SortOrder,
	})
}

func (h *httpHandler) handleDeleteChoice(c *gin.Context) {
	if err := h.motions.DeleteChoice(c.Request.Context(), c.Param("motionID"), c.Param("choiceID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderChoicesRequestPayload struct {
	ChoiceIDs []string `json:"choice_ids"`
}

func (h *httpHandler) handleReorderChoices(c *gin.Context) {
	var request reorderChoicesRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.ChoiceIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.motions.ReorderChoices(c.Request.Context(), c.Param("motionID"), request.ChoiceIDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
