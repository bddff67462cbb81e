package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careerlens/assessment-server/internal/questionbank"
)

// SessionState is the lifecycle phase of a test session.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateInProgress
	StateSubmitting
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotStarted = errors.New("session not started")
	ErrSessionFinished   = errors.New("session already finished")
	ErrUnanswered        = errors.New("current question not answered")
	ErrIndexOutOfRange   = errors.New("question index out of range")
	ErrValueOutOfRange   = errors.New("answer value out of range")
	ErrUnknownQuestion   = errors.New("unknown question id")
)

// TestSession drives one questionnaire run: answer capture, non-linear
// navigation, the countdown, and the submission hand-off. All entry points
// are safe for concurrent use; the timer goroutine and request handlers
// share the session.
//
// Submitting and Completed are terminal with respect to answer mutation,
// which also guarantees at most one in-flight submission per session.
type TestSession struct {
	token     string
	userID    string
	questions []questionbank.Question
	duration  int
	submitter Submitter
	logger    *zap.Logger

	mu        sync.Mutex
	state     SessionState
	answers   map[int]Answer
	current   int
	remaining int
	outcome   *Outcome
	ref       *PersistedResultRef
	submitErr error
}

// SessionView is a consistent read-only snapshot of a session.
type SessionView struct {
	Token          string              `json:"token"`
	State          string              `json:"state"`
	CurrentIndex   int                 `json:"current_index"`
	Remaining      int                 `json:"remaining_seconds"`
	TotalQuestions int                 `json:"total_questions"`
	Answered       int                 `json:"answered"`
	Outcome        *Outcome            `json:"outcome,omitempty"`
	Ref            *PersistedResultRef `json:"ref,omitempty"`
	SubmitFailed   bool                `json:"submit_failed"`
}

func newTestSession(token, userID string, questions []questionbank.Question, durationSeconds int, submitter Submitter, logger *zap.Logger) *TestSession {
	return &TestSession{
		token:     token,
		userID:    userID,
		questions: questions,
		duration:  durationSeconds,
		submitter: submitter,
		logger:    logger,
		state:     StateNotStarted,
		answers:   make(map[int]Answer),
	}
}

func (s *TestSession) Token() string { return s.token }

// Start moves the session into InProgress and arms the countdown.
func (s *TestSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInProgress:
		return nil
	case StateSubmitting, StateCompleted:
		return ErrSessionFinished
	}

	s.state = StateInProgress
	s.current = 0
	s.remaining = s.duration
	s.answers = make(map[int]Answer)
	return nil
}

// Answer records or overwrites the response for a question. It does not
// move the current-question pointer.
func (s *TestSession) Answer(questionID, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if value < minAnswerValue || value > maxAnswerValue {
		return ErrValueOutOfRange
	}
	known := false
	for _, q := range s.questions {
		if q.ID == questionID {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownQuestion
	}

	s.answers[questionID] = Answer{QuestionID: questionID, Value: value}
	return nil
}

// Next advances past the current question; it is only enabled once the
// current question has an answer. Advancing past the last question
// finalizes the session.
func (s *TestSession) Next(ctx context.Context) (finished bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return false, err
	}
	if _, ok := s.answers[s.questions[s.current].ID]; !ok {
		return false, ErrUnanswered
	}

	if s.current == len(s.questions)-1 {
		return true, s.finalizeLocked(ctx, false)
	}
	s.current++
	return false, nil
}

// Prev moves back one question, bounded at the first.
func (s *TestSession) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// JumpTo moves the pointer to an arbitrary question index.
func (s *TestSession) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.current = index
	return nil
}

// Finish is the manual submission trigger: navigation completed past the
// last question. The last question must be on screen and answered.
func (s *TestSession) Finish(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.current != len(s.questions)-1 {
		return ErrIndexOutOfRange
	}
	if _, ok := s.answers[s.questions[s.current].ID]; !ok {
		return ErrUnanswered
	}
	return s.finalizeLocked(ctx, false)
}

// Tick decrements the countdown by one second. When it reaches zero the
// session force-submits with whatever answers exist. The return value
// reports whether the session is still InProgress afterwards.
func (s *TestSession) Tick(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return false
	}

	s.remaining--
	if s.remaining > 0 {
		return true
	}
	s.remaining = 0
	if err := s.finalizeLocked(ctx, true); err != nil {
		s.logger.Error("forced submission failed to score", zap.String("token", s.token), zap.Error(err))
	}
	return false
}

// Reset discards all answers and the timer and returns to NotStarted.
// Finished sessions cannot be reset.
func (s *TestSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitting || s.state == StateCompleted {
		return ErrSessionFinished
	}

	s.state = StateNotStarted
	s.answers = make(map[int]Answer)
	s.current = 0
	s.remaining = 0
	return nil
}

// View returns a consistent snapshot for rendering.
func (s *TestSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionView{
		Token:          s.token,
		State:          s.state.String(),
		CurrentIndex:   s.current,
		Remaining:      s.remaining,
		TotalQuestions: len(s.questions),
		Answered:       len(s.answers),
		Outcome:        s.outcome,
		Ref:            s.ref,
		SubmitFailed:   s.submitErr != nil,
	}
}

// State returns the current lifecycle phase.
func (s *TestSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the computed result once the session has finished.
func (s *TestSession) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// SubmitError reports the persistence failure, if any. The computed
// outcome is still available for display and retry.
func (s *TestSession) SubmitError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

func (s *TestSession) requireInProgress() error {
	switch s.state {
	case StateNotStarted:
		return ErrSessionNotStarted
	case StateSubmitting, StateCompleted:
		return ErrSessionFinished
	}
	return nil
}

// finalizeLocked scores the accumulated answers and hands the outcome to
// the persistence router. The session always reaches Completed, even when
// persistence fails: the outcome is kept on the session and stashed in the
// guest slot so the caller can display and retry it. Callers hold s.mu.
func (s *TestSession) finalizeLocked(ctx context.Context, forced bool) error {
	s.state = StateSubmitting

	answers := make([]Answer, 0, len(s.answers))
	for _, a := range s.answers {
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].QuestionID < answers[j].QuestionID })

	outcome, err := Score(answers, s.questions)
	if err != nil {
		s.submitErr = err
		s.state = StateCompleted
		return err
	}
	outcome.DurationSeconds = s.duration - s.remaining
	outcome.Answers = answers
	s.outcome = &outcome

	dest := EphemeralDestination(s.token)
	if s.userID != "" {
		dest = DurableDestination(s.userID)
	}

	ref, err := s.submitter.Submit(ctx, outcome, dest)
	if err != nil {
		s.submitErr = err
		s.logger.Warn("result persistence failed, keeping outcome for retry",
			zap.String("token", s.token),
			zap.Bool("forced", forced),
			zap.Error(err))

		if dest.Durable() {
			// Stash the computed score in the ephemeral slot so a retry
			// can re-submit it without re-scoring.
			if fallbackRef, ferr := s.submitter.Submit(ctx, outcome, EphemeralDestination(s.token)); ferr != nil {
				s.logger.Error("ephemeral fallback write failed", zap.String("token", s.token), zap.Error(ferr))
			} else {
				s.ref = &fallbackRef
			}
		}
	} else {
		s.ref = &ref
	}

	s.state = StateCompleted
	s.logger.Info("session completed",
		zap.String("token", s.token),
		zap.Bool("forced", forced),
		zap.Int("answered", len(answers)),
		zap.Int("duration_seconds", outcome.DurationSeconds))
	return nil
}

// SessionManager owns the live session registry and the per-session
// countdown tickers.
type SessionManager struct {
	submitter    Submitter
	questions    []questionbank.Question
	duration     int
	logger       *zap.Logger
	tickInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*TestSession
	stops    map[string]chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewSessionManager creates a registry handing out sessions over the given
// question set with the given countdown duration.
func NewSessionManager(submitter Submitter, questions []questionbank.Question, durationSeconds int, logger *zap.Logger) *SessionManager {
	if submitter == nil {
		panic("submitter must not be nil")
	}
	if len(questions) == 0 {
		panic("questions must not be empty")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if durationSeconds <= 0 {
		durationSeconds = 300
	}
	return &SessionManager{
		submitter:    submitter,
		questions:    questions,
		duration:     durationSeconds,
		logger:       logger.Named("session-manager"),
		tickInterval: time.Second,
		sessions:     make(map[string]*TestSession),
		stops:        make(map[string]chan struct{}),
	}
}

// Create registers a new session. userID is empty for guests.
func (m *SessionManager) Create(userID string) *TestSession {
	token := uuid.NewString()
	s := newTestSession(token, userID, m.questions, m.duration, m.submitter, m.logger)

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("token", token), zap.Bool("guest", userID == ""))
	return s
}

// Get looks up a live session by token.
func (m *SessionManager) Get(token string) (*TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Start moves a session into InProgress and spawns its ticker goroutine.
func (m *SessionManager) Start(token string) error {
	s, err := m.Get(token)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionFinished
	}
	if _, running := m.stops[token]; running {
		return nil
	}
	stop := make(chan struct{})
	m.stops[token] = stop
	m.wg.Add(1)
	go m.runTimer(s, stop)
	return nil
}

// Reset stops the session's ticker and returns it to NotStarted, so a
// stale tick can never force-submit a reset session.
func (m *SessionManager) Reset(token string) error {
	s, err := m.Get(token)
	if err != nil {
		return err
	}
	m.stopTimer(token)
	return s.Reset()
}

// Close stops all tickers and waits for them to drain.
func (m *SessionManager) Close() {
	m.mu.Lock()
	m.closed = true
	for token, stop := range m.stops {
		close(stop)
		delete(m.stops, token)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *SessionManager) runTimer(s *TestSession, stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.Tick(context.Background()) {
				m.stopTimer(s.Token())
				return
			}
		}
	}
}

func (m *SessionManager) stopTimer(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stop, ok := m.stops[token]; ok {
		close(stop)
		delete(m.stops, token)
	}
}
