package assessment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/metrics"
	"carbon-scribe/impact-ledger/internal/notifications"
	"carbon-scribe/impact-ledger/pkg/ledger"
	"carbon-scribe/impact-ledger/pkg/workflows"
)

// Operation names used for metrics
const (
	OpSubmit = "submit"
	OpVerify = "verify"
)

// Service is the environmental-impact assessment registry. Domain failures
// are reported through result values; the error return is reserved for
// storage failures.
type Service struct {
	repo      Repository
	ownerID   string
	logger    *zap.Logger
	publisher notifications.Publisher
	metrics   metrics.Recorder
	states    *workflows.StateMachine
	now       func() time.Time
}

// NewService creates a registry whose assessments can only be verified by ownerID.
// A nil publisher or recorder disables events or metrics.
func NewService(repo Repository, ownerID string, logger *zap.Logger, publisher notifications.Publisher, recorder metrics.Recorder) *Service {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		ownerID:   ownerID,
		logger:    logger,
		publisher: publisher,
		metrics:   recorder,
		states:    workflows.NewAssessmentStateMachine(),
		now:       time.Now,
	}
}

// Submit records a new, unverified assessment
func (s *Service) Submit(ctx context.Context, data AssessmentData, assessor string) (SubmitResult, error) {
	var created Assessment
	err := s.repo.RunInTransaction(ctx, func(tx Tx) error {
		created = tx.Insert(func(id int64) Assessment {
			return newAssessment(id, assessor, data, s.now())
		})
		event := notifications.NewEvent(notifications.EventAssessmentSubmitted, notifications.ChannelAssessment, assessor, map[string]any{
			"assessment_id": created.ID,
			"process_id":    created.ProcessID,
			"score":         Score(created),
		})
		tx.AfterCommit(func() { s.publisher.Publish(ctx, event) })
		return nil
	})
	res, err := ledger.Resolve(err)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to submit assessment: %w", err)
	}
	s.metrics.Observe(metrics.ModuleAssessment, OpSubmit, res)

	s.logger.Info("Assessment submitted",
		zap.Int64("assessment_id", created.ID),
		zap.Int64("process_id", created.ProcessID),
		zap.String("assessor", assessor))

	return SubmitResult{Result: res, AssessmentID: created.ID}, nil
}

// Verify marks an assessment as verified. Only the owner may verify, and the
// owner check happens before the lookup. Verifying twice succeeds without
// changing the record or publishing a second event.
func (s *Service) Verify(ctx context.Context, id int64, caller string) (ledger.Result, error) {
	if caller != s.ownerID {
		res := ledger.Fail(ledger.ErrOwnerOnly)
		s.metrics.Observe(metrics.ModuleAssessment, OpVerify, res)
		s.logger.Warn("Assessment verification refused",
			zap.Int64("assessment_id", id),
			zap.String("caller", caller))
		return res, nil
	}

	err := s.repo.RunInTransaction(ctx, func(tx Tx) error {
		a, ok := tx.Find(id)
		if !ok {
			return ledger.ErrNotFound
		}
		if !s.states.CanTransition(workflows.AssessmentState(a.Verified), workflows.AssessmentVerified) {
			return nil
		}
		a.Verified = true
		tx.Save(a)
		event := notifications.NewEvent(notifications.EventAssessmentVerified, notifications.ChannelAssessment, caller, map[string]any{
			"assessment_id": id,
		})
		tx.AfterCommit(func() { s.publisher.Publish(ctx, event) })
		return nil
	})
	res, err := ledger.Resolve(err)
	if err != nil {
		return ledger.Result{}, fmt.Errorf("failed to verify assessment: %w", err)
	}
	s.metrics.Observe(metrics.ModuleAssessment, OpVerify, res)
	if !res.Success {
		s.logger.Info("Assessment verification failed",
			zap.Int64("assessment_id", id),
			zap.String("error", string(res.Error)))
		return res, nil
	}

	s.logger.Info("Assessment verified", zap.Int64("assessment_id", id))
	return res, nil
}

// CalculateScore returns the score of an assessment; ok is false when it does not exist
func (s *Service) CalculateScore(ctx context.Context, id int64) (score int, ok bool, err error) {
	a, ok, err := s.Get(ctx, id)
	if err != nil || !ok {
		return 0, false, err
	}
	return Score(a), true, nil
}

// Get returns a copy of an assessment
func (s *Service) Get(ctx context.Context, id int64) (Assessment, bool, error) {
	var (
		a  Assessment
		ok bool
	)
	err := s.repo.View(ctx, func(v View) error {
		a, ok = v.Find(id)
		return nil
	})
	if err != nil {
		return Assessment{}, false, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, ok, nil
}

// List returns all assessments ordered by id
func (s *Service) List(ctx context.Context) ([]Assessment, error) {
	var out []Assessment
	err := s.repo.View(ctx, func(v View) error {
		out = v.List()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return out, nil
}

// Summary counts assessments and how many are verified
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(list)}
	for _, a := range list {
		if a.Verified {
			sum.Verified++
		}
	}
	return sum, nil
}
