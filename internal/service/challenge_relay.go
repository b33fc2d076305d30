package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

const defaultChallengeTimeout = 5 * time.Minute

// Challenge outcomes recorded in metrics.
const (
	ChallengeOutcomeAnswered = "answered"
	ChallengeOutcomeExpired  = "expired"
	ChallengeOutcomeFallback = "fallback"
	ChallengeOutcomeFailed   = "failed"
)

// ChallengeTransport posts a captcha image and returns the identifier of the
// message it created. Replies referencing that identifier answer the challenge.
type ChallengeTransport interface {
	PostChallenge(ctx context.Context, image []byte) (string, error)
}

// ChallengeAcknowledger is implemented by transports that can mark a
// challenge message as handled once an answer arrived.
type ChallengeAcknowledger interface {
	AcknowledgeChallenge(ctx context.Context, messageID string) error
}

// LocalSolver obtains an answer synchronously when the transport is unreachable.
type LocalSolver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

type pendingChallenge struct {
	challenge models.Challenge
	answer    chan string
}

// ChallengeRelay bridges a blocking captcha prompt to an asynchronous human
// responder. At most one challenge is outstanding per relay.
type ChallengeRelay struct {
	transport ChallengeTransport
	fallback  LocalSolver
	timeout   time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending *pendingChallenge
}

// NewChallengeRelay constructs a relay. fallback may be nil.
func NewChallengeRelay(transport ChallengeTransport, fallback LocalSolver, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *ChallengeRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultChallengeTimeout
	}
	return &ChallengeRelay{
		transport: transport,
		fallback:  fallback,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Timeout returns the default wait used when Submit is given a non-positive timeout.
func (r *ChallengeRelay) Timeout() time.Duration {
	return r.timeout
}

// Submit posts the captcha image and blocks until a correlated reply arrives,
// the timeout elapses or ctx is cancelled.
func (r *ChallengeRelay) Submit(ctx context.Context, image []byte, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = r.timeout
	}

	p, err := r.reserve()
	if err != nil {
		return "", err
	}

	var messageID string
	if r.transport == nil {
		err = appErrors.ErrChallengeChannelUnavailable
	} else {
		messageID, err = r.transport.PostChallenge(ctx, image)
	}
	if err != nil {
		defer r.release(p)
		return r.solveLocally(ctx, image, err)
	}

	r.mu.Lock()
	p.challenge.ID = messageID
	p.challenge.ExpiresAt = r.now().Add(timeout)
	r.mu.Unlock()
	r.logger.Info("captcha challenge pending",
		zap.String("challenge_id", messageID),
		zap.Duration("timeout", timeout))

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case answer := <-p.answer:
		return r.answered(ctx, messageID, answer), nil
	case <-timer.C:
		if answer, ok := r.expire(p); ok {
			return r.answered(ctx, messageID, answer), nil
		}
		r.logger.Warn("captcha challenge expired", zap.String("challenge_id", messageID))
		r.metrics.RecordChallenge(ChallengeOutcomeExpired)
		return "", appErrors.ErrChallengeExpired
	case <-ctx.Done():
		if answer, ok := r.expire(p); ok {
			return r.answered(ctx, messageID, answer), nil
		}
		r.logger.Info("captcha challenge cancelled", zap.String("challenge_id", messageID))
		r.metrics.RecordChallenge(ChallengeOutcomeExpired)
		return "", ctx.Err()
	}
}

// Deliver offers an inbound reply to the pending challenge. Only the first
// reply correlated to the pending challenge is accepted.
func (r *ChallengeRelay) Deliver(reply models.ChallengeReply) bool {
	answer := strings.TrimSpace(reply.Content)
	if answer == "" || reply.InReplyTo == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.pending
	if p == nil || p.challenge.ID == "" || p.challenge.ID != reply.InReplyTo || p.challenge.Status != models.ChallengeStatusPending {
		return false
	}
	p.challenge.Status = models.ChallengeStatusAnswered
	p.answer <- answer
	r.pending = nil
	r.logger.Info("captcha reply accepted",
		zap.String("challenge_id", p.challenge.ID),
		zap.String("author", reply.Author))
	return true
}

// Current returns the pending challenge, if one has been posted.
func (r *ChallengeRelay) Current() (models.Challenge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil || r.pending.challenge.ID == "" {
		return models.Challenge{}, false
	}
	return r.pending.challenge, true
}

func (r *ChallengeRelay) reserve() (*pendingChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		return nil, appErrors.ErrChallengeAlreadyPending
	}
	p := &pendingChallenge{
		challenge: models.Challenge{
			CreatedAt: r.now(),
			Status:    models.ChallengeStatusPending,
		},
		answer: make(chan string, 1),
	}
	r.pending = p
	return p, nil
}

func (r *ChallengeRelay) release(p *pendingChallenge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == p {
		r.pending = nil
	}
}

// expire moves p to expired unless a reply won the race, in which case the
// buffered answer is returned.
func (r *ChallengeRelay) expire(p *pendingChallenge) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.challenge.Status == models.ChallengeStatusAnswered {
		return <-p.answer, true
	}
	p.challenge.Status = models.ChallengeStatusExpired
	if r.pending == p {
		r.pending = nil
	}
	return "", false
}

func (r *ChallengeRelay) answered(ctx context.Context, messageID, answer string) string {
	r.metrics.RecordChallenge(ChallengeOutcomeAnswered)
	if ack, ok := r.transport.(ChallengeAcknowledger); ok {
		if err := ack.AcknowledgeChallenge(ctx, messageID); err != nil {
			r.logger.Warn("failed to acknowledge captcha reply", zap.String("challenge_id", messageID), zap.Error(err))
		}
	}
	return answer
}

func (r *ChallengeRelay) solveLocally(ctx context.Context, image []byte, cause error) (string, error) {
	unavailable := appErrors.Wrap(cause, appErrors.ErrChallengeChannelUnavailable.Code, appErrors.ErrChallengeChannelUnavailable.Status, appErrors.ErrChallengeChannelUnavailable.Message)
	if r.fallback == nil {
		r.logger.Error("captcha channel unavailable", zap.Error(cause))
		r.metrics.RecordChallenge(ChallengeOutcomeFailed)
		return "", unavailable
	}
	r.logger.Warn("captcha channel unavailable, using local solver", zap.Error(cause))
	answer, err := r.fallback.Solve(ctx, image)
	if err != nil {
		r.metrics.RecordChallenge(ChallengeOutcomeFailed)
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		r.metrics.RecordChallenge(ChallengeOutcomeFailed)
		return "", appErrors.Clone(appErrors.ErrValidation, "local captcha answer is empty")
	}
	r.metrics.RecordChallenge(ChallengeOutcomeFallback)
	return answer, nil
}
