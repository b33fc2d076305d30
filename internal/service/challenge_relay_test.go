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

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

type mockChallengeTransport struct {
	mu      sync.Mutex
	id      string
	err     error
	block   chan struct{}
	entered chan struct{}
	posted  [][]byte
	acked   []string
	ackErr  error
}

func (m *mockChallengeTransport) PostChallenge(ctx context.Context, image []byte) (string, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, image)
	if m.err != nil {
		return "", m.err
	}
	return m.id, nil
}

func (m *mockChallengeTransport) AcknowledgeChallenge(ctx context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, messageID)
	return m.ackErr
}

type stubSolver struct {
	answer string
	err    error
	calls  int
}

func (s *stubSolver) Solve(ctx context.Context, image []byte) (string, error) {
	s.calls++
	return s.answer, s.err
}

type submitResult struct {
	answer string
	err    error
}

func submitAsync(relay *ChallengeRelay, ctx context.Context, timeout time.Duration) <-chan submitResult {
	done := make(chan submitResult, 1)
	go func() {
		answer, err := relay.Submit(ctx, []byte("png"), timeout)
		done <- submitResult{answer: answer, err: err}
	}()
	return done
}

func waitPosted(t *testing.T, relay *ChallengeRelay) models.Challenge {
	t.Helper()
	var current models.Challenge
	require.Eventually(t, func() bool {
		c, ok := relay.Current()
		current = c
		return ok
	}, time.Second, time.Millisecond)
	return current
}

func TestChallengeRelayAnsweredByCorrelatedReply(t *testing.T) {
	transport := &mockChallengeTransport{id: "msg-1"}
	relay := NewChallengeRelay(transport, nil, time.Minute, nil, zap.NewNop())

	done := submitAsync(relay, context.Background(), time.Second)
	challenge := waitPosted(t, relay)
	assert.Equal(t, "msg-1", challenge.ID)
	assert.Equal(t, models.ChallengeStatusPending, challenge.Status)

	assert.False(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-other", Content: "wrong"}))
	assert.False(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-1", Content: "   "}))
	assert.True(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-1", Content: " X7KQ ", Author: "solver"}))

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "X7KQ", res.answer)
	assert.Equal(t, []string{"msg-1"}, transport.acked)

	_, pending := relay.Current()
	assert.False(t, pending)
}

func TestChallengeRelayFirstReplyWins(t *testing.T) {
	relay := NewChallengeRelay(&mockChallengeTransport{id: "msg-2"}, nil, time.Minute, nil, nil)

	done := submitAsync(relay, context.Background(), time.Second)
	waitPosted(t, relay)

	assert.True(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-2", Content: "first"}))
	assert.False(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-2", Content: "second"}))

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "first", res.answer)
}

func TestChallengeRelayExpiresAndIgnoresLateReply(t *testing.T) {
	relay := NewChallengeRelay(&mockChallengeTransport{id: "msg-3"}, nil, time.Minute, nil, nil)

	_, err := relay.Submit(context.Background(), []byte("png"), 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrChallengeExpired))

	assert.False(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-3", Content: "late"}))
	_, pending := relay.Current()
	assert.False(t, pending)

	// a fresh challenge may be started after expiry
	done := submitAsync(relay, context.Background(), time.Second)
	waitPosted(t, relay)
	require.True(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-3", Content: "again"}))
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "again", res.answer)
}

func TestChallengeRelayRejectsSecondSubmit(t *testing.T) {
	transport := &mockChallengeTransport{id: "msg-4", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	relay := NewChallengeRelay(transport, nil, time.Minute, nil, nil)

	done := submitAsync(relay, context.Background(), time.Second)
	<-transport.entered

	// the slot is reserved before the transport returns
	_, err := relay.Submit(context.Background(), []byte("png"), time.Second)
	assert.True(t, errors.Is(err, appErrors.ErrChallengeAlreadyPending))

	close(transport.block)
	waitPosted(t, relay)

	_, err = relay.Submit(context.Background(), []byte("png"), time.Second)
	assert.True(t, errors.Is(err, appErrors.ErrChallengeAlreadyPending))

	require.True(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-4", Content: "ok"}))
	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, transport.posted, 1)
}

func TestChallengeRelayChannelUnavailable(t *testing.T) {
	transportErr := errors.New("webhook unreachable")
	relay := NewChallengeRelay(&mockChallengeTransport{err: transportErr}, nil, time.Minute, nil, nil)

	_, err := relay.Submit(context.Background(), []byte("png"), time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrChallengeChannelUnavailable))
	assert.True(t, errors.Is(err, transportErr))

	_, pending := relay.Current()
	assert.False(t, pending)
}

func TestChallengeRelayFallsBackToLocalSolver(t *testing.T) {
	solver := &stubSolver{answer: "abcd\n"}
	relay := NewChallengeRelay(&mockChallengeTransport{err: errors.New("down")}, solver, time.Minute, nil, nil)

	answer, err := relay.Submit(context.Background(), []byte("png"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "abcd", answer)
	assert.Equal(t, 1, solver.calls)

	// the slot is released after the fallback completes
	_, err = relay.Submit(context.Background(), []byte("png"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, solver.calls)
}

func TestChallengeRelayRejectsBlankLocalAnswer(t *testing.T) {
	solver := &stubSolver{answer: "  \n"}
	relay := NewChallengeRelay(nil, solver, time.Minute, nil, nil)

	answer, err := relay.Submit(context.Background(), []byte("png"), time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, answer)

	_, pending := relay.Current()
	assert.False(t, pending)
}

func TestChallengeRelayWithoutTransportUsesFallback(t *testing.T) {
	solver := &stubSolver{answer: "zz"}
	relay := NewChallengeRelay(nil, solver, time.Minute, nil, nil)

	answer, err := relay.Submit(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "zz", answer)
}

func TestChallengeRelayCancelledContext(t *testing.T) {
	relay := NewChallengeRelay(&mockChallengeTransport{id: "msg-5"}, nil, time.Minute, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := submitAsync(relay, ctx, time.Minute)
	waitPosted(t, relay)
	cancel()

	res := <-done
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.False(t, relay.Deliver(models.ChallengeReply{InReplyTo: "msg-5", Content: "late"}))
}

func TestSessionRegistryRoutesReplies(t *testing.T) {
	registry := NewSessionRegistry()
	first := NewSession(NewChallengeRelay(&mockChallengeTransport{id: "m-a"}, nil, time.Minute, nil, nil))
	second := NewSession(NewChallengeRelay(&mockChallengeTransport{id: "m-b"}, nil, time.Minute, nil, nil))
	registry.Add(first)
	registry.Add(second)
	assert.NotEqual(t, first.ID, second.ID)

	doneA := submitAsync(first.Relay, context.Background(), time.Second)
	doneB := submitAsync(second.Relay, context.Background(), time.Second)
	waitPosted(t, first.Relay)
	waitPosted(t, second.Relay)
	assert.Len(t, registry.Pending(), 2)

	assert.True(t, registry.Deliver(models.ChallengeReply{InReplyTo: "m-b", Content: "bee"}))
	assert.True(t, registry.Deliver(models.ChallengeReply{InReplyTo: "m-a", Content: "ay"}))
	assert.False(t, registry.Deliver(models.ChallengeReply{InReplyTo: "m-a", Content: "again"}))

	assert.Equal(t, "ay", (<-doneA).answer)
	assert.Equal(t, "bee", (<-doneB).answer)

	registry.Remove(first.ID)
	_, ok := registry.Get(first.ID)
	assert.False(t, ok)
}
