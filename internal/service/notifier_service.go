package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/pkg/discord"
	"github.com/noah-isme/siak-warlock/pkg/jobs"
)

const (
	trackerUsername  = "Warlock Tracker"
	trackerAvatarURL = "https://academic.ui.ac.id/favicon.ico"
	// Zero-width no-break spaces pad the tag from the title.
	titleSpacer = " \ufeff \ufeff \ufeff "
)

// ChangeReport is what the tracker hands to a notifier.
type ChangeReport struct {
	Changeset  models.Changeset
	PreviousAt time.Time
	CurrentAt  time.Time
}

// ChangeNotifier delivers change reports.
type ChangeNotifier interface {
	Notify(ctx context.Context, report ChangeReport) error
}

// WebhookSender is the subset of discord.Webhook used for notifications.
type WebhookSender interface {
	Send(ctx context.Context, msg discord.Message) error
}

// DiscordNotifier renders change reports as Discord embeds.
type DiscordNotifier struct {
	sender     WebhookSender
	trackedURL string
	logger     *zap.Logger
}

// NewDiscordNotifier constructs a notifier. trackedURL is used to label the academic period.
func NewDiscordNotifier(sender WebhookSender, trackedURL string, logger *zap.Logger) *DiscordNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscordNotifier{sender: sender, trackedURL: trackedURL, logger: logger}
}

// Notify sends the report in chunks of at most ten embeds. The header is only
// attached to the first chunk.
func (n *DiscordNotifier) Notify(ctx context.Context, report ChangeReport) error {
	messages := BuildChangeMessages(report, FormatPeriod(n.trackedURL))
	if len(messages) == 0 {
		n.logger.Warn("no embeds to send")
		return nil
	}
	for i, msg := range messages {
		if err := n.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(messages), err)
		}
		n.logger.Info("sent change notification chunk",
			zap.Int("chunk", i+1),
			zap.Int("chunks", len(messages)),
			zap.Int("embeds", len(msg.Embeds)))
	}
	return nil
}

// BuildChangeMessages renders a changeset into webhook messages.
func BuildChangeMessages(report ChangeReport, period string) []discord.Message {
	embeds := make([]discord.Embed, 0, report.Changeset.Size())
	for _, section := range report.Changeset.Added {
		embeds = append(embeds, sectionEmbed("[NEW]", discord.ColorGreen, section))
	}
	for _, section := range report.Changeset.Removed {
		embeds = append(embeds, sectionEmbed("[REMOVED]", discord.ColorRed, section))
	}
	for _, change := range report.Changeset.Modified {
		embeds = append(embeds, changeEmbed(change))
	}
	if len(embeds) == 0 {
		return nil
	}

	header := fmt.Sprintf("## Jadwal SIAK UI Berubah (%s)", period)
	if !report.PreviousAt.IsZero() && !report.CurrentAt.IsZero() {
		header += fmt.Sprintf("\n\nBetween <t:%d:R> to <t:%d:R>", report.PreviousAt.Unix(), report.CurrentAt.Unix())
	}

	messages := make([]discord.Message, 0, (len(embeds)+discord.MaxEmbedsPerMessage-1)/discord.MaxEmbedsPerMessage)
	for start := 0; start < len(embeds); start += discord.MaxEmbedsPerMessage {
		end := start + discord.MaxEmbedsPerMessage
		if end > len(embeds) {
			end = len(embeds)
		}
		msg := discord.Message{
			Username:  trackerUsername,
			AvatarURL: trackerAvatarURL,
			Embeds:    embeds[start:end],
		}
		if start == 0 {
			msg.Content = header
		}
		messages = append(messages, msg)
	}
	return messages
}

func sectionTitle(tag string, code, courseName string) string {
	name := courseName
	if name == "" {
		name = code
	}
	return tag + titleSpacer + name + " (" + code + ")"
}

func sectionEmbed(tag string, color int, section models.Section) discord.Embed {
	value := strings.Join([]string{
		"- " + orDash(section.ScheduleText()),
		"- " + orDash(section.LocationText()),
		"- " + orDash(section.Professor),
		"- Kapasitas " + strconv.Itoa(section.Capacity),
	}, "\n")
	return discord.Embed{
		Title:  sectionTitle(tag, section.Code, section.CourseName),
		Color:  color,
		Fields: []discord.EmbedField{{Name: section.Code, Value: value}},
	}
}

func changeEmbed(change models.SectionChange) discord.Embed {
	fields := make([]discord.EmbedField, 0, len(change.Diffs))
	for _, diff := range change.Diffs {
		fields = append(fields, discord.EmbedField{
			Name:  "[Δ]" + titleSpacer + fieldLabel(diff.Field),
			Value: fmt.Sprintf("- ~~%s~~ → %s", orDash(diff.OldValue), orDash(diff.NewValue)),
		})
	}
	return discord.Embed{
		Title:  sectionTitle("[EDITED]", change.Code, change.CourseName),
		Color:  discord.ColorYellow,
		Fields: fields,
	}
}

func fieldLabel(field string) string {
	switch field {
	case models.FieldProfessor:
		return "Dosen"
	case models.FieldSchedule:
		return "Jadwal"
	case models.FieldLocation:
		return "Ruang"
	case models.FieldCapacity:
		return "Kapasitas"
	default:
		return field
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// FormatPeriod turns the period query parameter of the tracked URL into a
// readable label, e.g. "2025-2" becomes "Semester Genap 2025/2026".
func FormatPeriod(trackedURL string) string {
	code := "Unknown"
	if u, err := url.Parse(trackedURL); err == nil {
		if p := u.Query().Get("period"); p != "" {
			code = p
		}
	}
	year, semester, ok := strings.Cut(code, "-")
	if !ok {
		return code
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return code
	}
	name := "Genap"
	if semester == "1" {
		name = "Ganjil"
	}
	return fmt.Sprintf("Semester %s %d/%d", name, y, y+1)
}

const notifyJobType = "changeset.notify"

// QueuedNotifier hands reports to a background queue that retries delivery.
// Notify blocks until the queue delivered the report or gave up on it.
type QueuedNotifier struct {
	queue *jobs.Queue
}

// NewQueuedNotifier wraps next with a worker queue. Start the returned queue before use.
func NewQueuedNotifier(next ChangeNotifier, cfg jobs.QueueConfig) (*QueuedNotifier, *jobs.Queue) {
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		report, ok := job.Payload.(ChangeReport)
		if !ok {
			return nil
		}
		return next.Notify(ctx, report)
	}, cfg)
	return &QueuedNotifier{queue: queue}, queue
}

// Notify enqueues the report and waits for its final outcome. A report that
// exhausted its retries is returned as an error so the caller keeps the
// previous snapshot.
func (n *QueuedNotifier) Notify(ctx context.Context, report ChangeReport) error {
	done := make(chan error, 1)
	job := jobs.Job{
		Type:    notifyJobType,
		Payload: report,
		Done:    func(err error) { done <- err },
	}
	if err := n.queue.Enqueue(job); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier writes change reports to the log; used when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs every change.
func (n *LogNotifier) Notify(ctx context.Context, report ChangeReport) error {
	for _, s := range report.Changeset.Added {
		n.logger.Info("section added", zap.String("code", s.Code), zap.String("course", s.CourseName))
	}
	for _, s := range report.Changeset.Removed {
		n.logger.Info("section removed", zap.String("code", s.Code), zap.String("course", s.CourseName))
	}
	for _, c := range report.Changeset.Modified {
		for _, d := range c.Diffs {
			n.logger.Info("section changed",
				zap.String("code", c.Code),
				zap.String("field", d.Field),
				zap.String("old", d.OldValue),
				zap.String("new", d.NewValue))
		}
	}
	return nil
}
