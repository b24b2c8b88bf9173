package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/export"
	"ifs-actionplan/internal/guide"
	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/llm/providers"
	"ifs-actionplan/internal/plans"
	"ifs-actionplan/internal/profile"
	"ifs-actionplan/internal/prompts"
	"ifs-actionplan/internal/recommendations"
	"ifs-actionplan/internal/services/health"
	"ifs-actionplan/internal/shared/config"
	"ifs-actionplan/internal/shared/server"
	"ifs-actionplan/internal/shared/server/middleware"
	"ifs-actionplan/internal/shared/storage/db"
	"ifs-actionplan/internal/shared/storage/object"
	localstore "ifs-actionplan/internal/shared/storage/object/local"
	s3store "ifs-actionplan/internal/shared/storage/object/s3"
	"ifs-actionplan/internal/shared/telemetry"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config                 config.Config
	Router                 *gin.Engine
	DB                     *sql.DB
	Store                  object.ObjectStore
	Profile                profile.Profile
	Guide                  *guide.Provider
	LLM                    llm.Client
	PlansRepo              plans.Repo
	PlansService           *plans.Service
	RecommendationsService *recommendations.Service
	PlanHandler            *plans.Handler
	RecommendationHandler  *recommendations.Handler
	GuideHandler           *guide.Handler
	Health                 *health.Service
}

// Option overrides a dependency before services are wired. Used by tests and
// the command line tool.
type Option func(*App)

// WithLLM replaces the configured LLM client.
func WithLLM(c llm.Client) Option {
	return func(a *App) { a.LLM = c }
}

// WithGuide replaces the configured guide provider.
func WithGuide(p *guide.Provider) Option {
	return func(a *App) { a.Guide = p }
}

// WithStore replaces the configured object store.
func WithStore(s object.ObjectStore) Option {
	return func(a *App) { a.Store = s }
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	p, err := buildProfile(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Profile: p}
	for _, opt := range opts {
		opt(app)
	}

	if app.Store == nil {
		store, err := buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.Store = store
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if app.Guide == nil {
		app.Guide = guide.NewProvider(guide.Options{
			Path:      cfg.GuidePath,
			URL:       cfg.GuideURL,
			Snapshots: app.Store,
		})
	}
	if app.LLM == nil {
		app.LLM = providers.New(cfg)
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:                app.Config,
		Health:                app.Health,
		PlanHandler:           app.PlanHandler,
		RecommendationHandler: app.RecommendationHandler,
		GuideHandler:          app.GuideHandler,
		RateLimiter:           middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":      cfg.Env,
		"profile":  p.Name,
		"store":    cfg.ObjectStoreType,
		"database": sqlDB != nil,
		"provider": providers.Name(app.LLM),
		"model":    providers.Model(app.LLM, p.Prompt.Model),
	})
	return app, nil
}

func buildProfile(cfg config.Config) (profile.Profile, error) {
	p := profile.Default()
	if path := strings.TrimSpace(cfg.ProfilePath); path != "" {
		loaded, err := profile.Load(path)
		if err != nil {
			return profile.Profile{}, err
		}
		p = loaded
	}
	if model := strings.TrimSpace(cfg.LLMModel); model != "" {
		p.Prompt.Model = model
	}
	return p, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.PresetOptions(db.RuntimeProfile()))
	sqlDB, err := db.Shared(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var repo plans.Repo
	if app.DB != nil {
		repo = &plans.PGRepo{DB: app.DB}
	} else {
		repo = plans.NewMemoryRepo()
	}

	builder, err := prompts.NewBuilder(app.Profile)
	if err != nil {
		return err
	}

	planSvc := &plans.Service{
		Store:          app.Store,
		Repo:           repo,
		Profile:        app.Profile,
		Renderer:       export.NewRenderer(app.Profile),
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}
	recSvc := &recommendations.Service{
		Plans:    repo,
		Guide:    app.Guide,
		Prompts:  builder,
		LLM:      app.LLM,
		Sections: app.Profile.Sections,
	}

	healthSvc := &health.Service{
		Guide:    app.Guide,
		Provider: providers.Name(app.LLM),
		Model:    providers.Model(app.LLM, builder.Model()),
		Store:    app.Config.ObjectStoreType,
	}
	if app.DB != nil {
		healthSvc.DB = app.DB
	}

	app.PlansRepo = repo
	app.PlansService = planSvc
	app.RecommendationsService = recSvc
	app.PlanHandler = plans.NewHandler(planSvc)
	app.RecommendationHandler = recommendations.NewHandler(recSvc)
	app.GuideHandler = guide.NewHandler(app.Guide)
	app.Health = healthSvc

	if app.PlanHandler == nil || app.RecommendationHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
