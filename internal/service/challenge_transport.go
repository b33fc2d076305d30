package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/noah-isme/siak-warlock/pkg/discord"
)

const captchaFilename = "captcha.png"

// FileWebhook is the subset of discord.Webhook used to post challenges.
type FileWebhook interface {
	SendFile(ctx context.Context, msg discord.Message, filename string, data []byte) (string, error)
	Edit(ctx context.Context, messageID string, msg discord.Message) error
}

// DiscordChallengeTransport posts captcha images to a Discord channel. The
// created message id becomes the challenge id.
type DiscordChallengeTransport struct {
	webhook       FileWebhook
	mentionUserID string
}

// NewDiscordChallengeTransport constructs the transport. mentionUserID is optional.
func NewDiscordChallengeTransport(webhook FileWebhook, mentionUserID string) *DiscordChallengeTransport {
	return &DiscordChallengeTransport{webhook: webhook, mentionUserID: strings.TrimSpace(mentionUserID)}
}

// PostChallenge uploads the image and returns the created message id.
func (t *DiscordChallengeTransport) PostChallenge(ctx context.Context, image []byte) (string, error) {
	content := "Captcha terdeteksi, balas pesan ini dengan jawabannya."
	mentions := &discord.AllowedMentions{Parse: []string{}}
	if t.mentionUserID != "" {
		content = fmt.Sprintf("<@%s> %s", t.mentionUserID, content)
		mentions.Users = []string{t.mentionUserID}
	}
	msg := discord.Message{
		Username:        "Warlock Captcha",
		Content:         content,
		AllowedMentions: mentions,
	}
	id, err := t.webhook.SendFile(ctx, msg, captchaFilename, image)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("discord returned no message id")
	}
	return id, nil
}

// AcknowledgeChallenge marks the challenge message as solved.
func (t *DiscordChallengeTransport) AcknowledgeChallenge(ctx context.Context, messageID string) error {
	return t.webhook.Edit(ctx, messageID, discord.Message{Content: "✅ Captcha solved"})
}

// ReaderSolver asks for the answer on a line-oriented reader such as stdin.
// A single goroutine owns the reader for the solver's lifetime, so a Solve
// abandoned on cancellation never leaves a second reader behind. Blank lines
// are skipped.
type ReaderSolver struct {
	in     *bufio.Reader
	prompt io.Writer

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewReaderSolver constructs a solver reading from in and prompting on prompt.
func NewReaderSolver(in io.Reader, prompt io.Writer) *ReaderSolver {
	if prompt == nil {
		prompt = io.Discard
	}
	return &ReaderSolver{in: bufio.NewReader(in), prompt: prompt, lines: make(chan lineResult)}
}

// Solve waits for the next non-blank line or ctx cancellation.
func (s *ReaderSolver) Solve(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.once.Do(func() { go s.readLines() })
	fmt.Fprintf(s.prompt, "Captcha (%d bytes) requires an answer: ", len(image))

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r, ok := <-s.lines:
			if !ok {
				return "", fmt.Errorf("read captcha answer: %w", io.EOF)
			}
			line := strings.TrimSpace(r.line)
			if line != "" {
				return line, nil
			}
			if r.err != nil {
				return "", fmt.Errorf("read captcha answer: %w", r.err)
			}
			fmt.Fprint(s.prompt, "Captcha answer is empty, try again: ")
		}
	}
}

func (s *ReaderSolver) readLines() {
	defer close(s.lines)
	for {
		line, err := s.in.ReadString('\n')
		s.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}
