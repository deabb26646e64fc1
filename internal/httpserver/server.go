package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/radiusdt/dsp-console/internal/auth"
	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/radiusdt/dsp-console/internal/database"
	"github.com/radiusdt/dsp-console/internal/dsp"
	"github.com/radiusdt/dsp-console/internal/metrics"
	"github.com/radiusdt/dsp-console/internal/middleware"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/sheet"
	"github.com/radiusdt/dsp-console/internal/storage"
	"go.uber.org/zap"
)

// Dependencies holds all external dependencies for the server. DB, Redis
// and ClickHouse are optional; without them the in-memory implementations
// are used.
type Dependencies struct {
	DB         *database.PostgresDB
	Redis      *database.RedisDB
	ClickHouse *database.ClickHouseDB
	Ledger     storage.PerformanceLedger
	Blobs      objectstore.Store
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Server wraps HTTP handlers and console services.
type Server struct {
	router          chi.Router
	accountService  *dsp.AccountService
	campaignService *dsp.CampaignService
	reportService   *dsp.ReportService
	dashboard       *dsp.DashboardService
	creativeService *dsp.CreativeService
	lookupService   *dsp.LookupService
	rateLimiter     *middleware.RateLimitMiddleware
	deps            *Dependencies
	logger          *zap.Logger
	config          *config.Config
}

// NewServer wires repositories and services and registers all routes.
func NewServer(deps *Dependencies) *Server {
	cfg := deps.Config

	var (
		campaigns storage.CampaignRepo
		files     storage.FileRepo
		reports   storage.ReportStore
		users     storage.UserRepo
		creatives storage.CreativeRepo
		lookups   storage.LookupRepo
	)
	if deps.DB != nil {
		repo := storage.NewPostgresCampaignRepo(deps.DB.Pool)
		campaigns, files, reports = repo, repo, repo
		users = storage.NewPostgresUserRepo(deps.DB.Pool)
		creatives = storage.NewPostgresCreativeRepo(deps.DB.Pool)
		lookups = storage.NewPostgresLookupRepo(deps.DB.Pool)
	} else {
		userRepo := storage.NewInMemoryUserRepo()
		repo := storage.NewInMemoryCampaignRepo(userRepo)
		campaigns, files, reports = repo, repo, repo
		users = userRepo
		creatives = storage.NewInMemoryCreativeRepo()
		lookups = storage.NewInMemoryLookupRepo()
	}

	var (
		lock     dsp.UploadLock
		cache    dsp.DashboardCache
		denylist auth.Denylist
	)
	if deps.Redis != nil {
		lock = dsp.NewRedisUploadLock(deps.Redis.Client, cfg.Upload.LockTTL)
		cache = dsp.NewRedisDashboardCache(deps.Redis.Client, cfg.Dashboard.CacheTTL)
		denylist = auth.NewRedisDenylist(deps.Redis.Client)
	} else {
		lock = dsp.NewInMemoryUploadLock()
		cache = dsp.NewInMemoryDashboardCache(cfg.Dashboard.CacheTTL)
		denylist = auth.NewMemoryDenylist()
	}

	ledger := deps.Ledger
	if ledger == nil {
		ledger = storage.NewInMemoryLedger()
	}
	blobs := deps.Blobs
	if blobs == nil {
		blobs = objectstore.NewMemoryStore(cfg.Server.PublicURL + "/media")
	}

	tokens := auth.NewTokenManager(cfg.Auth)
	reportSvc := dsp.NewReportService(dsp.ReportDeps{
		Campaigns: campaigns,
		Files:     files,
		Reports:   reports,
		Blobs:     blobs,
		Parser:    sheet.NewParser(sheet.ColumnsFromConfig(cfg.Sheet)),
		Ledger:    ledger,
		Lock:      lock,
		Cache:     cache,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})

	s := &Server{
		accountService:  dsp.NewAccountService(users, tokens, denylist, deps.Logger),
		campaignService: dsp.NewCampaignService(campaigns, files, reportSvc, cache, deps.Metrics, deps.Logger),
		reportService:   reportSvc,
		dashboard:       dsp.NewDashboardService(campaigns, cache, cfg.Dashboard.WindowDays, deps.Metrics, deps.Logger),
		creativeService: dsp.NewCreativeService(creatives, blobs, deps.Metrics, deps.Logger),
		lookupService:   dsp.NewLookupService(lookups),
		rateLimiter:     middleware.NewRateLimitMiddleware(cfg.RateLimit, deps.Logger, deps.Metrics),
		deps:            deps,
		logger:          deps.Logger,
		config:          cfg,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics).Handler)
	r.Use(s.rateLimiter.Handler)
	r.Use(middleware.NewAuthMiddleware(tokens, cfg.Auth.SkipPaths, deps.Logger).Handler)

	// Health check
	r.Get("/health", s.handleHealth)

	// Prometheus metrics
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Accounts
		r.Post("/register", s.handleRegister)
		r.Post("/token", s.handleLogin)
		r.Post("/token/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.Get("/profile", s.handleProfile)
		r.Post("/update-password", s.handleUpdatePassword)
		r.Put("/user/update", s.handleUpdateProfile)
		r.Get("/users", s.handleListUsers)
		r.Get("/users/{id}", s.handleGetUser)

		// Campaigns and reports
		r.Get("/campaigns", s.handleListCampaigns)
		r.Post("/campaigns", s.handleCreateCampaign)
		r.Route("/campaigns/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetCampaign)
			r.Put("/", s.handleReplaceCampaign)
			r.Patch("/", s.handleUpdateCampaign)
			r.Delete("/", s.handleDeleteCampaign)
			r.Post("/report", s.handleUploadReport)
			r.Get("/report", s.handleGetReport)
			r.Get("/report/history", s.handleReportHistory)
		})
		r.Get("/reports", s.handleListReports)

		// Creatives
		r.Get("/creatives", s.handleListCreatives)
		r.Post("/creatives", s.handleCreateCreative)

		// Lookups
		r.Get("/lookups/{kind}", s.handleLookup)
		r.Get("/locations", s.handleLocations)
		r.Get("/target-types", s.handleTargetTypes)
	})

	// Without a bucket, stored objects are served from the process.
	if mem, isMemory := blobs.(*objectstore.MemoryStore); isMemory {
		r.Get("/media/*", s.mediaHandler(mem))
	}

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/performance", s.handlePerformance)
		r.Get("/status-distribution", s.handleStatusDistribution)
		r.Get("/type-distribution", s.handleTypeDistribution)
		r.Get("/metrics", s.handleRateMetrics)
		r.Get("/buy-type-spend", s.handleBuyTypeSpend)
		r.Get("/tiles", s.handleTiles)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// CleanupLimiters periodically drops per-IP rate limiters until ctx is
// done.
func (s *Server) CleanupLimiters(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.CleanupIPLimiters()
		}
	}
}

func (s *Server) mediaHandler(store *objectstore.MemoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		body, err := store.Get(r.Context(), key)
		if err != nil {
			respond(w, http.StatusNotFound, "error", "object not found", nil)
			return
		}
		w.Header().Set("Content-Type", contentTypeOf(key))
		_, _ = w.Write(body)
	}
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	check := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	if s.deps.DB != nil {
		check("postgres", s.deps.DB.Health)
	}
	if s.deps.Redis != nil {
		check("redis", s.deps.Redis.Health)
	}
	if s.deps.ClickHouse != nil {
		check("clickhouse", s.deps.ClickHouse.Health)
	}

	if !healthy {
		respond(w, http.StatusServiceUnavailable, "error", "degraded", checks)
		return
	}
	ok(w, "ok", checks)
}
