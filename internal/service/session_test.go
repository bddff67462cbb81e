package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSubmitter records every Submit call; SubmitFunc overrides behavior.
type stubSubmitter struct {
	mu         sync.Mutex
	calls      []Destination
	outcomes   []Outcome
	SubmitFunc func(ctx context.Context, outcome Outcome, dest Destination) (PersistedResultRef, error)
}

func (s *stubSubmitter) Submit(ctx context.Context, outcome Outcome, dest Destination) (PersistedResultRef, error) {
	s.mu.Lock()
	s.calls = append(s.calls, dest)
	s.outcomes = append(s.outcomes, outcome)
	s.mu.Unlock()

	if s.SubmitFunc != nil {
		return s.SubmitFunc(ctx, outcome, dest)
	}
	return PersistedResultRef{ID: "ref-1", Durable: dest.Durable()}, nil
}

func (s *stubSubmitter) destinations() []Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Destination, len(s.calls))
	copy(out, s.calls)
	return out
}

func newTestManager(t *testing.T, sub Submitter, durationSeconds int) *SessionManager {
	t.Helper()
	m := NewSessionManager(sub, questionsPerCategory(2), durationSeconds, zap.NewNop())
	t.Cleanup(m.Close)
	return m
}

func answerAll(t *testing.T, s *TestSession) {
	t.Helper()
	for i := 0; i < 12; i++ {
		require.NoError(t, s.Answer(i+1, 3))
	}
}

func TestNewSessionManager(t *testing.T) {
	t.Run("nil submitter panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewSessionManager(nil, questionsPerCategory(1), 300, zap.NewNop())
		})
	})

	t.Run("empty questions panic", func(t *testing.T) {
		assert.Panics(t, func() {
			NewSessionManager(&stubSubmitter{}, nil, 300, zap.NewNop())
		})
	})
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("answer before start is rejected", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")

		assert.ErrorIs(t, s.Answer(1, 3), ErrSessionNotStarted)
		assert.Equal(t, StateNotStarted, s.State())
	})

	t.Run("start begins countdown at full duration", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		view := s.View()
		assert.Equal(t, "in_progress", view.State)
		assert.Equal(t, 300, view.Remaining)
		assert.Equal(t, 0, view.CurrentIndex)
	})

	t.Run("next requires an answer for the current question", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		_, err := s.Next(ctx)
		assert.ErrorIs(t, err, ErrUnanswered)

		require.NoError(t, s.Answer(1, 4))
		finished, err := s.Next(ctx)
		require.NoError(t, err)
		assert.False(t, finished)
		assert.Equal(t, 1, s.View().CurrentIndex)
	})

	t.Run("re-answering overwrites", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		require.NoError(t, s.Answer(1, 2))
		require.NoError(t, s.Answer(1, 5))
		assert.Equal(t, 1, s.View().Answered)
	})

	t.Run("answer validation", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		assert.ErrorIs(t, s.Answer(1, 0), ErrValueOutOfRange)
		assert.ErrorIs(t, s.Answer(1, 6), ErrValueOutOfRange)
		assert.ErrorIs(t, s.Answer(999, 3), ErrUnknownQuestion)
	})

	t.Run("jump is bounded", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		assert.ErrorIs(t, s.JumpTo(-1), ErrIndexOutOfRange)
		assert.ErrorIs(t, s.JumpTo(12), ErrIndexOutOfRange)
		require.NoError(t, s.JumpTo(11))
		assert.Equal(t, 11, s.View().CurrentIndex)
	})

	t.Run("prev is bounded at zero", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		require.NoError(t, s.Prev())
		assert.Equal(t, 0, s.View().CurrentIndex)
	})
}

func TestSessionSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("next past last question finalizes", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := newTestManager(t, sub, 300)
		s := m.Create("user-1")
		require.NoError(t, s.Start())
		answerAll(t, s)
		require.NoError(t, s.JumpTo(11))

		finished, err := s.Next(ctx)
		require.NoError(t, err)
		assert.True(t, finished)
		assert.Equal(t, StateCompleted, s.State())

		dests := sub.destinations()
		require.Len(t, dests, 1)
		assert.True(t, dests[0].Durable())
		assert.Equal(t, "user-1", dests[0].UserID())
	})

	t.Run("guest submission routes to ephemeral destination", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := newTestManager(t, sub, 300)
		s := m.Create("")
		require.NoError(t, s.Start())
		answerAll(t, s)
		require.NoError(t, s.JumpTo(11))
		require.NoError(t, s.Finish(ctx))

		dests := sub.destinations()
		require.Len(t, dests, 1)
		assert.False(t, dests[0].Durable())
		assert.Equal(t, s.Token(), dests[0].Token())
	})

	t.Run("manual finish requires last question answered", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, s.Start())

		assert.ErrorIs(t, s.Finish(ctx), ErrIndexOutOfRange)
		require.NoError(t, s.JumpTo(11))
		assert.ErrorIs(t, s.Finish(ctx), ErrUnanswered)
	})

	t.Run("timeout force-submits partial answers", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := newTestManager(t, sub, 10)
		s := m.Create("")
		require.NoError(t, s.Start())
		// Answer only half the questions.
		for i := 0; i < 6; i++ {
			require.NoError(t, s.Answer(i+1, 5))
		}

		for i := 0; i < 9; i++ {
			assert.True(t, s.Tick(ctx))
		}
		assert.False(t, s.Tick(ctx))

		assert.Equal(t, StateCompleted, s.State())
		outcome, ok := s.Outcome()
		require.True(t, ok)
		assert.Len(t, outcome.Answers, 6)
		assert.Equal(t, 10, outcome.DurationSeconds)
		require.Len(t, sub.destinations(), 1)
	})

	t.Run("no mutation after completion", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := newTestManager(t, sub, 300)
		s := m.Create("")
		require.NoError(t, s.Start())
		answerAll(t, s)
		require.NoError(t, s.JumpTo(11))
		require.NoError(t, s.Finish(ctx))

		assert.ErrorIs(t, s.Answer(1, 3), ErrSessionFinished)
		assert.ErrorIs(t, s.Finish(ctx), ErrSessionFinished)
		assert.ErrorIs(t, s.Reset(), ErrSessionFinished)
		assert.False(t, s.Tick(ctx))
		// Only one submission ever happened.
		assert.Len(t, sub.destinations(), 1)
	})

	t.Run("persistence failure still completes and stashes for retry", func(t *testing.T) {
		sub := &stubSubmitter{}
		sub.SubmitFunc = func(ctx context.Context, outcome Outcome, dest Destination) (PersistedResultRef, error) {
			if dest.Durable() {
				return PersistedResultRef{}, errors.New("store down")
			}
			return PersistedResultRef{ID: "fallback", Durable: false}, nil
		}
		m := newTestManager(t, sub, 300)
		s := m.Create("user-1")
		require.NoError(t, s.Start())
		answerAll(t, s)
		require.NoError(t, s.JumpTo(11))

		require.NoError(t, s.Finish(ctx))

		assert.Equal(t, StateCompleted, s.State())
		assert.Error(t, s.SubmitError())
		outcome, ok := s.Outcome()
		require.True(t, ok)
		assert.NotEmpty(t, outcome.Vector)

		// Durable attempt first, then the ephemeral stash.
		dests := sub.destinations()
		require.Len(t, dests, 2)
		assert.True(t, dests[0].Durable())
		assert.False(t, dests[1].Durable())

		view := s.View()
		assert.True(t, view.SubmitFailed)
		require.NotNil(t, view.Ref)
		assert.Equal(t, "fallback", view.Ref.ID)
	})
}

func TestSessionReset(t *testing.T) {
	t.Run("reset discards answers and timer", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		s := m.Create("")
		require.NoError(t, m.Start(s.Token()))
		require.NoError(t, s.Answer(1, 4))

		require.NoError(t, m.Reset(s.Token()))

		view := s.View()
		assert.Equal(t, "not_started", view.State)
		assert.Equal(t, 0, view.Answered)
		assert.Equal(t, 0, view.Remaining)
	})

	t.Run("tick after reset does not submit", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := newTestManager(t, sub, 1)
		s := m.Create("")
		require.NoError(t, s.Start())
		require.NoError(t, s.Reset())

		assert.False(t, s.Tick(context.Background()))
		assert.Empty(t, sub.destinations())
		assert.Equal(t, StateNotStarted, s.State())
	})
}

func TestSessionManager(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		_, err := m.Get("nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, m.Start("nope"), ErrSessionNotFound)
		assert.ErrorIs(t, m.Reset("nope"), ErrSessionNotFound)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		m := newTestManager(t, &stubSubmitter{}, 300)
		a := m.Create("")
		b := m.Create("")
		assert.NotEqual(t, a.Token(), b.Token())
	})

	t.Run("ticker drives the countdown to forced submission", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := newTestManager(t, sub, 2)
		m.tickInterval = 5 * time.Millisecond

		s := m.Create("")
		require.NoError(t, m.Start(s.Token()))

		require.Eventually(t, func() bool {
			return s.State() == StateCompleted
		}, time.Second, 5*time.Millisecond)
		assert.Len(t, sub.destinations(), 1)
	})

	t.Run("close stops tickers", func(t *testing.T) {
		sub := &stubSubmitter{}
		m := NewSessionManager(sub, questionsPerCategory(1), 60, zap.NewNop())
		m.tickInterval = time.Millisecond
		s := m.Create("")
		require.NoError(t, m.Start(s.Token()))

		m.Close()
		remaining := s.View().Remaining
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, remaining, s.View().Remaining)
	})
}
