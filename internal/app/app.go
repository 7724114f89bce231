package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weekly_trivia_backend/internal/config"
	"weekly_trivia_backend/internal/controller"
	"weekly_trivia_backend/internal/repository"
	"weekly_trivia_backend/internal/service"
	"weekly_trivia_backend/pkg/database"
	"weekly_trivia_backend/pkg/logger"
	"weekly_trivia_backend/pkg/monitoring"
	"weekly_trivia_backend/pkg/security"
	"weekly_trivia_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user        *repository.UserRepository
	quiz        *repository.QuizRepository
	submission  *repository.SubmissionRepository
	leaderboard *repository.LeaderboardRepository
	token       *repository.TokenRepository
}

type services struct {
	token       *service.TokenService
	auth        *service.AuthService
	scheduler   *service.SchedulerService
	quiz        *service.QuizService
	leaderboard *service.LeaderboardService
}

type controllers struct {
	auth        *controller.AuthController
	quiz        *controller.QuizController
	leaderboard *controller.LeaderboardController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		quiz:        repository.NewQuizRepository(db),
		submission:  repository.NewSubmissionRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db),
		token:       repository.NewTokenRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client, sched service.Scheduler) *services {
	s := &services{}

	s.token = service.NewTokenService(repos.token, cfg)
	s.auth = service.NewAuthService(repos.user, s.token, cfg)
	s.scheduler = service.NewSchedulerService(db, repos.quiz, repos.user, s.token, sched)
	s.quiz = service.NewQuizService(db, repos.quiz, repos.submission, repos.user, s.scheduler, s.token)
	s.leaderboard = service.NewLeaderboardService(repos.leaderboard, repos.quiz, rdb)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		quiz:        controller.NewQuizController(s.quiz),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	sched, err := service.NewGocronScheduler(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Log.Fatal("Failed to initialize scheduler", zap.Error(err))
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb, sched)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("weekly-trivia", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if err := services.scheduler.RearmCloseResets(); err != nil {
		logger.Log.Error("Failed to rearm close jobs", zap.Error(err))
	}
	services.scheduler.StartDailyTokenCleanup(cfg.Scheduler.CleanupHour, cfg.Scheduler.CleanupMinute)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.services != nil && a.services.scheduler != nil {
		if err := a.services.scheduler.Sched.Shutdown(); err != nil {
			logger.Log.Error("Scheduler shutdown failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
