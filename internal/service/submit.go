package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careerlens/assessment-server/internal/questionbank"
	"github.com/careerlens/assessment-server/internal/repository/models"
)

const dbTimeout = 2 * time.Second

var (
	ErrWriteFailed = errors.New("result write failed")
	ErrNotFound    = models.ErrNotFound
)

// SubmissionService is the persistence router: it writes a computed
// outcome either as a durable record (authenticated users) or into the
// guest session's ephemeral slot. Results are never deduplicated;
// resubmitting identical content yields a new id.
type SubmissionService struct {
	results   AssessmentResultRepository
	ephemeral EphemeralResultStore
	slotTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService creates a new SubmissionService instance.
func NewSubmissionService(results AssessmentResultRepository, ephemeral EphemeralResultStore, slotTTL time.Duration, logger *zap.Logger) *SubmissionService {
	if results == nil {
		panic("results repository must not be nil")
	}
	if ephemeral == nil {
		panic("ephemeral store must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if slotTTL <= 0 {
		slotTTL = 24 * time.Hour
	}
	return &SubmissionService{
		results:   results,
		ephemeral: ephemeral,
		slotTTL:   slotTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit persists a computed outcome at its destination. A durable write
// failure is reported as ErrWriteFailed; the caller still holds the
// outcome and can fall back to ephemeral display.
func (s *SubmissionService) Submit(ctx context.Context, outcome Outcome, dest Destination) (PersistedResultRef, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	owner := dest.UserID()
	if !dest.Durable() {
		owner = dest.Token()
	}
	rec := s.outcomeRecord(outcome, owner)

	if dest.Durable() {
		if err := s.results.Insert(dbCtx, rec); err != nil {
			return PersistedResultRef{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
		s.logger.Info("durable result stored",
			zap.String("id", rec.ID),
			zap.String("owner", rec.OwnerID),
			zap.String("code", rec.Dominant+rec.Secondary+rec.Tertiary))
		return PersistedResultRef{ID: rec.ID, Durable: true}, nil
	}

	if err := s.ephemeral.Put(dbCtx, dest.Token(), rec, s.slotTTL); err != nil {
		return PersistedResultRef{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	s.logger.Info("ephemeral result stored", zap.String("token", dest.Token()), zap.String("id", rec.ID))
	return PersistedResultRef{ID: rec.ID, Durable: false}, nil
}

// SaveGuestResult promotes the guest slot's outcome to a durable record
// owned by userID. Promotion is always explicit: signing in never migrates
// a guest result by itself. The new record keeps the computed scores and
// code but gets a fresh id; the slot is cleared on success.
func (s *SubmissionService) SaveGuestResult(ctx context.Context, token, userID string) (PersistedResultRef, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec, err := s.ephemeral.Get(dbCtx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return PersistedResultRef{}, ErrNotFound
		}
		return PersistedResultRef{}, fmt.Errorf("read guest slot: %w", err)
	}

	rec.ID = uuid.NewString()
	rec.OwnerID = userID
	if err := s.results.Insert(dbCtx, rec); err != nil {
		return PersistedResultRef{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := s.ephemeral.Delete(dbCtx, token); err != nil {
		s.logger.Warn("failed to clear guest slot after promotion", zap.String("token", token), zap.Error(err))
	}

	s.logger.Info("guest result promoted",
		zap.String("token", token),
		zap.String("user_id", userID),
		zap.String("id", rec.ID))
	return PersistedResultRef{ID: rec.ID, Durable: true}, nil
}

// GetResult returns a durable result by id, scoped to its owner. Missing
// rows and foreign rows are both ErrNotFound; a lookup never confirms that
// someone else's result exists.
func (s *SubmissionService) GetResult(ctx context.Context, id, userID string) (Result, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec, err := s.results.GetByID(dbCtx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("get result: %w", err)
	}
	if rec.OwnerID != userID {
		return Result{}, ErrNotFound
	}
	return recordToResult(rec), nil
}

func (s *SubmissionService) outcomeRecord(outcome Outcome, owner string) models.AssessmentResultRecord {
	scores := make(map[string]int, len(outcome.Vector))
	for cat, total := range outcome.Vector {
		scores[string(cat)] = total
	}
	answers := make([]models.AnswerRecord, len(outcome.Answers))
	for i, a := range outcome.Answers {
		answers[i] = models.AnswerRecord{QuestionID: a.QuestionID, Value: a.Value}
	}
	return models.AssessmentResultRecord{
		ID:              uuid.NewString(),
		OwnerID:         owner,
		Scores:          scores,
		Dominant:        string(outcome.Code.Dominant),
		Secondary:       string(outcome.Code.Secondary),
		Tertiary:        string(outcome.Code.Tertiary),
		CompletedAt:     s.now().UTC(),
		DurationSeconds: outcome.DurationSeconds,
		TotalQuestions:  outcome.TotalQuestions,
		RawAnswers:      answers,
	}
}

func recordToResult(rec models.AssessmentResultRecord) Result {
	vector := make(ScoreVector, len(rec.Scores))
	for code, total := range rec.Scores {
		vector[questionbank.Category(code)] = total
	}
	answers := make([]Answer, len(rec.RawAnswers))
	for i, a := range rec.RawAnswers {
		answers[i] = Answer{QuestionID: a.QuestionID, Value: a.Value}
	}
	return Result{
		ID:     rec.ID,
		Owner:  rec.OwnerID,
		Vector: vector,
		Code: HollandCode{
			Dominant:  questionbank.Category(rec.Dominant),
			Secondary: questionbank.Category(rec.Secondary),
			Tertiary:  questionbank.Category(rec.Tertiary),
		},
		CompletedAt:     rec.CompletedAt,
		DurationSeconds: rec.DurationSeconds,
		TotalQuestions:  rec.TotalQuestions,
		Answers:         answers,
	}
}
