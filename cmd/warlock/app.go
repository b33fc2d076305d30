package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/repository"
	"github.com/noah-isme/siak-warlock/internal/service"
	"github.com/noah-isme/siak-warlock/pkg/cache"
	"github.com/noah-isme/siak-warlock/pkg/config"
	"github.com/noah-isme/siak-warlock/pkg/database"
	"github.com/noah-isme/siak-warlock/pkg/discord"
	"github.com/noah-isme/siak-warlock/pkg/jobs"
	"github.com/noah-isme/siak-warlock/pkg/logger"
	"github.com/noah-isme/siak-warlock/pkg/storage"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService

	store     *service.SnapshotStoreService
	tracker   *service.TrackerService
	exports   *service.ExportService
	criteria  *service.CriteriaLoader
	auth      *service.AuthService
	sessions  *service.SessionRegistry
	notifyQ   *jobs.Queue
	notifying bool
	fileStore *repository.SnapshotFileStore

	checks  map[string]func(ctx context.Context) error
	closers []io.Closer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logr,
		metrics:  service.NewMetricsService(),
		criteria: service.NewCriteriaLoader(nil, logr),
		sessions: service.NewSessionRegistry(),
		checks:   map[string]func(ctx context.Context) error{},
		auth: service.NewAuthService(nil, logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		}),
	}

	primary, snapshotCache, err := a.snapshotBackends()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = service.NewSnapshotStoreService(primary, snapshotCache, cfg.Tracker.SnapshotCacheTTL, a.metrics, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	a.exports = service.NewExportService(exportStorage, logr, nil, nil)

	differ := service.NewDiffer(service.DiffOptions{
		SuppressProfessor: cfg.Tracker.SuppressProfessorChange,
		SuppressLocation:  cfg.Tracker.SuppressLocationChange,
	}, logr)
	a.tracker = service.NewTrackerService(
		repository.NewFileSnapshotSource(cfg.Tracker.SnapshotFile),
		a.store, differ, a.notifier(), a.metrics, logr)

	return a, nil
}

func (a *app) snapshotBackends() (service.SnapshotStore, *service.CacheService, error) {
	cfg := a.cfg
	switch cfg.Tracker.SnapshotStore {
	case config.SnapshotStoreRedis:
		repo, err := a.redis()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSnapshotStore(repo), nil, nil
	case config.SnapshotStorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, db)
		a.checks["postgres"] = db.PingContext
		repo := repository.NewSnapshotRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return nil, nil, fmt.Errorf("ensure snapshot schema: %w", err)
		}

		var snapshotCache *service.CacheService
		if cacheRepo, err := a.redis(); err != nil {
			a.logger.Warn("redis unavailable, snapshot cache disabled", zap.Error(err))
		} else {
			snapshotCache = service.NewCacheService(cacheRepo, a.metrics, cfg.Tracker.SnapshotCacheTTL, a.logger, true)
		}
		return repo, snapshotCache, nil
	case config.SnapshotStoreFile, "":
		local, err := storage.NewLocalStorage(cfg.Tracker.SnapshotDir)
		if err != nil {
			return nil, nil, fmt.Errorf("init snapshot dir: %w", err)
		}
		a.fileStore = repository.NewSnapshotFileStore(local, "", cfg.Tracker.SnapshotArchive)
		return a.fileStore, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot store %q", cfg.Tracker.SnapshotStore)
	}
}

func (a *app) redis() (*repository.CacheRepository, error) {
	client, err := cache.NewRedis(a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	repo := repository.NewCacheRepository(client, a.logger)
	a.closers = append(a.closers, repo)
	a.checks["redis"] = repo.Ping
	return repo, nil
}

func (a *app) notifier() service.ChangeNotifier {
	hook := discord.NewWebhook(a.cfg.Tracker.DiscordWebhookURL, &http.Client{Timeout: 15 * time.Second})
	if !hook.Configured() {
		a.logger.Info("tracker webhook not configured, changes are only logged")
		return service.NewLogNotifier(a.logger)
	}
	queued, queue := service.NewQueuedNotifier(
		service.NewDiscordNotifier(hook, a.cfg.Tracker.TrackedURL, a.logger),
		jobs.QueueConfig{
			Workers:    a.cfg.Notify.Workers,
			BufferSize: a.cfg.Notify.QueueSize,
			MaxRetries: a.cfg.Notify.Retries,
			RetryDelay: a.cfg.Notify.RetryDelay,
			Logger:     a.logger,
			DeadLetter: func(job jobs.Job, err error) {
				a.logger.Error("change notification failed, changes stay pending until the next check", zap.String("job_id", job.ID), zap.Error(err))
			},
		})
	a.notifyQ = queue
	return queued
}

// newSession creates a captcha session whose relay posts to Discord when
// configured and falls back to stdin.
func (a *app) newSession() *service.Session {
	var transport service.ChallengeTransport
	hook := discord.NewWebhook(a.cfg.Captcha.DiscordWebhookURL, &http.Client{Timeout: 30 * time.Second})
	if hook.Configured() {
		transport = service.NewDiscordChallengeTransport(hook, a.cfg.Captcha.MentionUserID)
	}
	relay := service.NewChallengeRelay(transport, service.NewReaderSolver(os.Stdin, os.Stderr), a.cfg.Captcha.Timeout, a.metrics, a.logger)
	session := service.NewSession(relay)
	a.sessions.Add(session)
	return session
}

func (a *app) startNotifications(ctx context.Context) {
	if a.notifyQ != nil {
		a.notifyQ.Start(ctx)
		a.notifying = true
	}
}

// Close flushes queued notifications and releases connections.
func (a *app) Close() {
	if a.notifying {
		a.notifyQ.Wait()
		a.notifyQ.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	_ = a.logger.Sync()
}
