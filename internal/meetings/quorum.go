package meetings

import (
	"context"
	"fmt"
	"time"

	"github.com/plenumlab/plenum/internal/activity"
)

// QuorumReport is the live or frozen participation snapshot of a meeting.
type QuorumReport struct {
	MeetingID             string
	CutoffTime            time.Time
	Frozen                bool
	TotalEligibleVoters   int64
	ActiveVoterCount      int64
	ActiveVoterPercentage float64
}

// QuorumReport aggregates distinct quorum-pool activity between the meeting
// start and the cutoff. The cutoff is the frozen quorumCalledAt when quorum
// has been called, otherwise the current time; the report is recomputed on
// every call and never cached.
func (s *Service) QuorumReport(ctx context.Context, meetingID string) (QuorumReport, error) {
	meeting, err := s.GetMeeting(ctx, meetingID)
	if err != nil {
		return QuorumReport{}, err
	}

	cutoff := s.clock().UTC()
	frozen := false
	if meeting.QuorumCalledAt != nil {
		cutoff = meeting.QuorumCalledAt.UTC()
		frozen = true
	}

	report := QuorumReport{
		MeetingID:  meeting.MeetingID,
		CutoffTime: cutoff,
		Frozen:     frozen,
	}

	err = s.db.WithContext(ctx).Model(&PoolMember{}).
		Where("pool_id = ?", meeting.QuorumVotingPoolID).
		Distinct("user_id").
		Count(&report.TotalEligibleVoters).Error
	if err != nil {
		return QuorumReport{}, fmt.Errorf("meetings: eligible voter count failed: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&activity.Log{}).
		Distinct("activity_logs.user_id").
		Joins("JOIN voting_pool_members ON voting_pool_members.user_id = activity_logs.user_id").
		Where("voting_pool_members.pool_id = ?", meeting.QuorumVotingPoolID).
		Where("activity_logs.created_at >= ? AND activity_logs.created_at <= ?", meeting.StartDate, cutoff).
		Count(&report.ActiveVoterCount).Error
	if err != nil {
		return QuorumReport{}, fmt.Errorf("meetings: active voter count failed: %w", err)
	}

	if report.TotalEligibleVoters > 0 {
		report.ActiveVoterPercentage = float64(report.ActiveVoterCount) / float64(report.TotalEligibleVoters) * 100
	}
	return report, nil
}

// CallQuorum freezes the quorum cutoff at the provided timestamp. A nil
// timestamp clears an earlier freeze and resumes live counting.
func (s *Service) CallQuorum(ctx context.Context, meetingID string, calledAt *time.Time) error {
	var value interface{}
	if calledAt != nil {
		value = calledAt.UTC()
	}
	result := s.db.WithContext(ctx).Model(&Meeting{}).
		Where("meeting_id = ?", meetingID).
		Update("quorum_called_at", value)
	if result.Error != nil {
		return fmt.Errorf("meetings: call quorum failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}
