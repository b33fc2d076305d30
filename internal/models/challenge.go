package models

import "time"

// ChallengeStatus represents the lifecycle of a captcha challenge.
type ChallengeStatus string

// Possible challenge statuses. Answered and expired are terminal.
const (
	ChallengeStatusPending  ChallengeStatus = "pending"
	ChallengeStatusAnswered ChallengeStatus = "answered"
	ChallengeStatusExpired  ChallengeStatus = "expired"
)

// Challenge is a captcha awaiting a human-supplied answer. Its ID is the
// message identifier the transport returned for the outbound notification.
type Challenge struct {
	ID           string          `json:"challenge_id"`
	ImagePayload []byte          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Status       ChallengeStatus `json:"status"`
}

// ChallengeReply is an inbound message that may answer a pending challenge.
type ChallengeReply struct {
	InReplyTo string `json:"in_reply_to" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Author    string `json:"author"`
}
