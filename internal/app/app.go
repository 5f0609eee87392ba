// Package app wires backends and services from a resolved configuration.
package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"bizplanner/internal/cache"
	"bizplanner/internal/config"
	"bizplanner/internal/logging"
	"bizplanner/internal/render"
	"bizplanner/internal/repository"
	"bizplanner/internal/service"
	"bizplanner/internal/templates"
	"bizplanner/internal/transport/rest"
	"bizplanner/internal/transport/ws"
)

const connectTimeout = 5 * time.Second

// App holds the wired services of a running server
type App struct {
	Config     *config.Config
	Auth       *service.AuthService
	Wizard     *service.WizardService
	Preview    *service.PreviewService
	Generation *service.GenerationService
	Hub        *ws.Hub

	mongo *mongo.Client
	redis *redis.Client
	log   *zap.Logger
}

// Build connects the configured backends and wires the services together.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, log: logging.Component("app")}

	planAPI := service.NewPlanAPIClient(cfg.PlanAPI)

	var (
		templateSource service.TemplateSource
		responseStore  service.ResponseStore
	)
	switch cfg.StorageBackend {
	case "mongo":
		db, err := a.connectMongo(ctx)
		if err != nil {
			return nil, err
		}
		templateSource = repository.NewTemplateRepo(db)
		responseStore = repository.NewResponseRepo(db)
	case "remote":
		templateSource = planAPI
		responseStore = planAPI
	case "memory":
		set, err := templates.LoadFile(cfg.TemplatesFile)
		if err != nil {
			return nil, err
		}
		templateSource = repository.NewMemoryTemplateRepo(set)
		responseStore = repository.NewMemoryResponseRepo()
	default:
		return nil, eris.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	var (
		sessionCache    cache.SessionCache
		previewCache    cache.PreviewCache
		generationCache cache.GenerationCache
	)
	switch cfg.CacheBackend {
	case "redis":
		rdb, err := a.connectRedis(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		sessionCache = cache.NewSessionCache(rdb, cfg.SessionTTL)
		previewCache = cache.NewPreviewCache(rdb, cfg.SessionTTL)
		generationCache = cache.NewGenerationCache(rdb, cfg.SessionTTL)
	case "memory":
		sessionCache = cache.NewMemorySessionCache()
		previewCache = cache.NewMemoryPreviewCache()
		generationCache = cache.NewMemoryGenerationCache()
	default:
		a.Close()
		return nil, eris.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	a.Hub = ws.NewHub()
	a.Auth = service.NewAuthService(cfg.Auth)
	a.Wizard = service.NewWizardService(templateSource, responseStore, sessionCache, service.WizardOptions{
		SaveDebounce: cfg.SaveDebounce,
		Locale:       cfg.Locale,
	})
	a.Preview = service.NewPreviewService(a.Wizard, previewCache, service.PreviewOptions{
		PollInterval:    cfg.Preview.PollInterval,
		MinAnswerLength: cfg.Preview.MinAnswerLength,
		AllowRawHTML:    cfg.Preview.AllowRawHTML,
	})
	a.Generation = service.NewGenerationService(planAPI, a.Wizard, generationCache, render.NewPlanRenderer(), cfg.GenerationPollInterval)

	// Inject broadcaster (Hub implements service.Broadcaster)
	a.Wizard.SetBroadcaster(a.Hub)
	a.Preview.SetBroadcaster(a.Hub)
	a.Generation.SetBroadcaster(a.Hub)

	a.Wizard.Subscribe(a.Preview)
	a.Wizard.Subscribe(a.Generation)

	a.log.Info("app wired",
		zap.String("storage", cfg.StorageBackend),
		zap.String("cache", cfg.CacheBackend),
		zap.String("planapi", cfg.PlanAPI.BaseURL),
	)
	return a, nil
}

// Container collects the services the HTTP router needs.
func (a *App) Container() *rest.Container {
	return &rest.Container{
		AuthService:        a.Auth,
		WizardService:      a.Wizard,
		PreviewService:     a.Preview,
		GenerationService:  a.Generation,
		WSHub:              a.Hub,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
	}
}

func (a *App) connectMongo(ctx context.Context) (*mongo.Database, error) {
	client, err := ConnectMongo(ctx, a.Config.MongoURI)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	a.log.Info("connected to MongoDB", zap.String("database", a.Config.MongoDatabase))
	return client.Database(a.Config.MongoDatabase), nil
}

func (a *App) connectRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, eris.Wrapf(err, "ping redis at %s", a.Config.RedisAddr)
	}
	a.redis = rdb
	a.log.Info("connected to Redis", zap.String("addr", a.Config.RedisAddr))
	return rdb, nil
}

// ConnectMongo opens and pings a MongoDB client.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, eris.Wrap(err, "connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, eris.Wrap(err, "ping mongodb")
	}
	return client, nil
}

// Shutdown flushes pending saves and stops live sessions, keeping their
// cached state for the next start.
func (a *App) Shutdown() {
	if a.Wizard != nil {
		a.Wizard.Shutdown()
	}
	if a.Hub != nil {
		a.Hub.Stop()
	}
}

// Close releases backend connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("close redis", zap.Error(err))
		}
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn("disconnect mongodb", zap.Error(err))
		}
	}
}
