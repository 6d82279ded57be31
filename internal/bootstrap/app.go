package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"docqa-backend/internal/answers"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/idempotency"
	"docqa-backend/internal/oracle"
	"docqa-backend/internal/oracle/anthropic"
	"docqa-backend/internal/oracle/gemini"
	openaioracle "docqa-backend/internal/oracle/openai"
	"docqa-backend/internal/processing"
	"docqa-backend/internal/query"
	"docqa-backend/internal/queue"
	"docqa-backend/internal/services/health"
	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/storage/db"
	"docqa-backend/internal/shared/storage/mongodb"
	"docqa-backend/internal/shared/storage/object"
	localstore "docqa-backend/internal/shared/storage/object/local"
	s3store "docqa-backend/internal/shared/storage/object/s3"
	"docqa-backend/internal/shared/storage/redisdb"
	"docqa-backend/internal/shared/telemetry"
)

// App holds shared dependencies for every binary.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB    *sql.DB
	Mongo *mongodb.Conn
	Redis rueidis.Client
	Store object.ObjectStore
	Queue *queue.SQSClient

	DocumentsRepo   documents.Repo
	AnswersRepo     answers.Repo
	IdempotencyRepo idempotency.Repo
	Oracle          oracle.Oracle

	Tracker           *documents.Tracker
	DocumentsService  *documents.Service
	ProcessingService *processing.Service
	QueryService      *query.Service
	Guard             *idempotency.Guard
	Health            *health.Service

	closers []func() error
}

// Build connects every configured backend and wires services and routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Health: health.NewService()}

	if err := app.buildRecords(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.buildRedis(ctx); err != nil {
		app.Close()
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	if strings.TrimSpace(cfg.SQSQueueURL) != "" {
		q, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Queue = q
	}

	orc, err := buildOracle(ctx, cfg, app)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Oracle = orc

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.Env)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.buildServices()
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        verifier,
		Health:          app.Health,
		DocumentHandler: documents.NewHandler(app.DocumentsService),
		IndexHandler:    processing.NewHandler(app.ProcessingService),
		QueryHandler:    query.NewHandler(app.QueryService),
		Idempotency:     idempotency.Middleware(app.Guard, cfg.IdempotencyReleaseOnFailure),
		Limiter:         middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases every backend connection opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildRecords(ctx context.Context) error {
	cfg := a.Config
	switch cfg.RecordStore {
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromConfig(db.DefaultServerOptions(), cfg))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.DB = sqlDB
		a.closers = append(a.closers, sqlDB.Close)
		if isDevLike(cfg.Env) {
			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		a.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		a.AnswersRepo = &answers.PGRepo{DB: sqlDB}
		a.IdempotencyRepo = &idempotency.PGRepo{DB: sqlDB}
		a.Health.Register("postgres", func(ctx context.Context) error {
			return db.Ping(ctx, sqlDB, 0)
		})
	case "mongo":
		conn, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		a.Mongo = conn
		a.closers = append(a.closers, conn.Close)
		docRepo, err := documents.NewMongoRepo(ctx, conn.Database)
		if err != nil {
			return fmt.Errorf("documents indexes: %w", err)
		}
		answerRepo, err := answers.NewMongoRepo(ctx, conn.Database)
		if err != nil {
			return fmt.Errorf("cached answers indexes: %w", err)
		}
		idemRepo, err := idempotency.NewMongoRepo(ctx, conn.Database)
		if err != nil {
			return fmt.Errorf("idempotency indexes: %w", err)
		}
		a.DocumentsRepo = docRepo
		a.AnswersRepo = answerRepo
		a.IdempotencyRepo = idemRepo
		a.Health.Register("mongo", conn.Ping)
	default:
		telemetry.L().Info("bootstrap.memory_store", zap.String("env", cfg.Env))
		a.DocumentsRepo = documents.NewMemoryRepo()
		a.AnswersRepo = answers.NewMemoryRepo()
		a.IdempotencyRepo = idempotency.NewMemoryRepo()
	}
	return nil
}

// buildRedis moves idempotency records to Redis and fronts the answer
// store with a Redis hot cache when REDIS_ADDR is set.
func (a *App) buildRedis(ctx context.Context) error {
	if len(a.Config.RedisAddr) == 0 {
		return nil
	}
	client, err := redisdb.Connect(ctx, redisdb.Config{Addrs: a.Config.RedisAddr, Password: a.Config.RedisPassword})
	if err != nil {
		return err
	}
	a.Redis = client
	a.closers = append(a.closers, func() error {
		client.Close()
		return nil
	})
	a.IdempotencyRepo = &idempotency.RedisRepo{Client: client}
	a.AnswersRepo = &answers.RedisHotRepo{Next: a.AnswersRepo, Client: client}
	a.Health.Register("redis", func(ctx context.Context) error {
		return redisdb.Ping(ctx, client)
	})
	return nil
}

func (a *App) buildServices() {
	cfg := a.Config
	a.Tracker = documents.NewTracker(a.DocumentsRepo)

	var jobs documents.JobEnqueuer
	if a.Queue != nil {
		jobs = a.Queue
	}
	a.DocumentsService = &documents.Service{
		Store:          a.Store,
		Repo:           a.DocumentsRepo,
		Jobs:           jobs,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	a.ProcessingService = &processing.Service{
		Tracker:     a.Tracker,
		Documents:   a.DocumentsRepo,
		Answers:     a.AnswersRepo,
		Store:       a.Store,
		Extractor:   a.Oracle,
		Concurrency: cfg.RebuildConcurrency,
	}
	a.QueryService = &query.Service{
		Documents:    a.Tracker,
		Cache:        answers.NewCache(a.AnswersRepo),
		Oracle:       a.Oracle,
		Singleflight: cfg.QuerySingleflight,
	}
	a.Guard = idempotency.NewGuard(a.IdempotencyRepo)
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildOracle selects the answering provider. Extraction stays in-process
// except for Gemini, which also reads scans and images.
func buildOracle(ctx context.Context, cfg config.Config, app *App) (oracle.Oracle, error) {
	local := oracle.LocalExtractor{}
	var orc oracle.Oracle
	switch cfg.OracleProvider {
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.OracleModel)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		orc = oracle.Combine(oracle.Fallback{Primary: client, Secondary: local}, client)
	case "openai", "local":
		baseURL := cfg.OpenAIBaseURL
		if cfg.OracleProvider == "local" && strings.TrimSpace(baseURL) == "" {
			return nil, errors.New("OPENAI_BASE_URL is required for ORACLE_PROVIDER=local")
		}
		client, err := openaioracle.New(cfg.OpenAIAPIKey, baseURL, cfg.OracleModel)
		if err != nil {
			return nil, err
		}
		orc = oracle.Combine(local, client)
	case "anthropic":
		client, err := anthropic.New(cfg.AnthropicAPIKey, cfg.OracleModel)
		if err != nil {
			return nil, err
		}
		orc = oracle.Combine(local, client)
	default:
		orc = oracle.Combine(local, oracle.Placeholder{})
	}
	return oracle.Instrument(orc, cfg.OracleProvider, cfg.OracleTimeout), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
