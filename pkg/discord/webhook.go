package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Embed colours used by the notifier.
const (
	ColorGreen  = 0x57F287
	ColorRed    = 0xED4245
	ColorYellow = 0xFEE75C
	ColorBlue   = 0x5865F2
)

// MaxEmbedsPerMessage is the limit Discord enforces on a single webhook call.
const MaxEmbedsPerMessage = 10

// EmbedField is one name/value row of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// AllowedMentions restricts who a message may ping.
type AllowedMentions struct {
	Parse []string `json:"parse"`
	Users []string `json:"users,omitempty"`
}

// Message is a webhook payload.
type Message struct {
	Username        string           `json:"username,omitempty"`
	AvatarURL       string           `json:"avatar_url,omitempty"`
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord webhook returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Webhook posts messages to a single Discord webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook constructs a webhook client. A nil client gets a 15s timeout default.
func NewWebhook(webhookURL string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Webhook{url: strings.TrimRight(webhookURL, "/"), client: client}
}

// Configured reports whether a URL was supplied.
func (w *Webhook) Configured() bool {
	return w != nil && w.url != ""
}

// Send posts a JSON message without waiting for the created message.
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook message: %w", err)
	}
	_, err = w.do(ctx, http.MethodPost, w.url, "application/json", bytes.NewReader(body))
	return err
}

// SendFile posts a message with one attachment and waits for Discord to
// return the created message, whose id is returned.
func (w *Webhook) SendFile(ctx context.Context, msg Message, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal webhook message: %w", err)
	}
	if err := form.WriteField("payload_json", string(payload)); err != nil {
		return "", err
	}
	part, err := form.CreateFormFile("files[0]", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	target, err := withQuery(w.url, "wait", "true")
	if err != nil {
		return "", err
	}
	body, err := w.do(ctx, http.MethodPost, target, form.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode webhook message: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("discord webhook returned no message id")
	}
	return created.ID, nil
}

// Edit replaces the content of a message previously sent through this webhook.
func (w *Webhook) Edit(ctx context.Context, messageID string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook message: %w", err)
	}
	_, err = w.do(ctx, http.MethodPatch, w.url+"/messages/"+url.PathEscape(messageID), "application/json", bytes.NewReader(body))
	return err
}

func (w *Webhook) do(ctx context.Context, method, target, contentType string, body io.Reader) ([]byte, error) {
	if !w.Configured() {
		return nil, fmt.Errorf("discord webhook url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse webhook url: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
