package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/config"
	s3infra "github.com/DaniDitu/LoveLink-sub000/internal/infra/s3"
	"github.com/DaniDitu/LoveLink-sub000/internal/jobs/cleanup"
	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
	redrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/redis"
	announcementssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/announcements"
	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	chatsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/chat"
	ephemeralsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/ephemeral"
	feedsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/feed"
	photosvc "github.com/DaniDitu/LoveLink-sub000/internal/services/photoaccess"
	presencesvc "github.com/DaniDitu/LoveLink-sub000/internal/services/presence"
	profilessvc "github.com/DaniDitu/LoveLink-sub000/internal/services/profiles"
	signalssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/signals"
	tenantssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/tenants"
	wstransport "github.com/DaniDitu/LoveLink-sub000/internal/transport/ws"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
	signals    *signalssvc.Service
	cleanup    *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	profileRepo := pgrepo.NewProfileRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	photoRequestRepo := pgrepo.NewPhotoRequestRepo(pool)
	feedRepo := pgrepo.NewFeedRepo(pool)
	sponsorRepo := pgrepo.NewSponsorRepo(pool)
	tenantRepo := pgrepo.NewTenantRepo(pool)
	announcementRepo := pgrepo.NewAnnouncementRepo(pool)
	reportRepo := pgrepo.NewReportRepo(pool)
	runRepo := redrepo.NewRunRepo(redisClient, cfg.Chat.RunCounterTTL)
	policyCacheRepo := redrepo.NewPolicyCacheRepo(redisClient, cfg.Chat.PolicyCacheTTL)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing without signed photo urls", zap.Error(err))
	} else {
		s3Client = c
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	hub := wstransport.NewHub()
	hub.AttachLogger(log)

	tenantsService := tenantssvc.NewService(tenantRepo, tenantssvc.Config{
		DefaultMaxConsecutive: cfg.Chat.MaxConsecutive,
	})
	tenantsService.AttachCache(policyCacheRepo)
	tenantsService.AttachLogger(log)

	profilesService := profilessvc.NewService(profileRepo)
	profilesService.AttachLogger(log)

	presenceService := presencesvc.NewService(profileRepo, presencesvc.Config{
		OnlineWindow:      cfg.Presence.OnlineWindow,
		HeartbeatDebounce: cfg.Presence.HeartbeatDebounce,
	})
	presenceService.AttachLogger(log)

	chatService := chatsvc.NewService(messageRepo, profileRepo, tenantsService)
	chatService.AttachRunCounter(runRepo)
	chatService.AttachNotifier(hub)
	chatService.AttachLogger(log)

	ephemeralService := ephemeralsvc.NewService(messageRepo)
	ephemeralService.AttachLogger(log)

	photoAccessService := photosvc.NewService(photoRequestRepo, profileRepo, photosvc.Config{
		ApprovalWindow: cfg.Access.ApprovalWindow,
		OneTimeViews:   cfg.Access.OneTimeViews,
		SignedURLTTL:   cfg.Access.SignedURLTTL,
	})
	photoAccessService.AttachNotifier(hub)
	photoAccessService.AttachLogger(log)

	feedService := feedsvc.NewService(feedRepo, profileRepo, feedsvc.Config{
		PageSize:     cfg.Feed.PageSize,
		MaxPageSize:  cfg.Feed.MaxPageSize,
		SponsorEvery: cfg.Feed.SponsorEvery,
		PhotoURLTTL:  cfg.Access.SignedURLTTL,
	})
	feedService.AttachSponsors(sponsorRepo)
	feedService.AttachPresence(presenceService)
	feedService.AttachLogger(log)

	if s3Client != nil {
		signer := s3infra.NewSigner(s3Client, cfg.S3.Bucket)
		photoAccessService.AttachSigner(signer)
		ephemeralService.AttachSigner(signer)
		feedService.AttachPhotoSigner(signer)
	}

	announcementsService := announcementssvc.NewService(announcementRepo)

	signalsService := signalssvc.NewService(reportRepo, profileRepo, hub, signalssvc.Config{
		ReportPollInterval: cfg.Signals.ReportPollInterval,
		LikePollInterval:   cfg.Signals.LikePollInterval,
	})
	signalsService.AttachLogger(log)

	cleanupJob := cleanup.New(messageRepo, cfg.Cleanup.DeletedRetention, log)
	cleanupJob.AttachSponsorPurge(sponsorRepo)

	RegisterRoutes(r, Dependencies{
		JWTManager:           jwtManager,
		FeedService:          feedService,
		ChatService:          chatService,
		EphemeralService:     ephemeralService,
		PhotoAccessService:   photoAccessService,
		PresenceService:      presenceService,
		ProfileService:       profilesService,
		AnnouncementsService: announcementsService,
		SignalsService:       signalsService,
		TenantsService:       tenantsService,
		Hub:                  hub,
		Logger:               log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
		signals:    signalsService,
		cleanup:    cleanupJob,
	}, nil
}

// Run starts the background loops and blocks on the HTTP listener.
func (a *App) Run(ctx context.Context) error {
	go a.signals.Run(ctx)
	go a.cleanup.RunLoop(ctx, a.cfg.Cleanup.Interval)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
