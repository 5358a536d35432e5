package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/cantinaverde/cantina/internal/app/controllers"
	appMigrations "github.com/cantinaverde/cantina/internal/app/migrations"
	appRepos "github.com/cantinaverde/cantina/internal/app/repositories"
	appRoutes "github.com/cantinaverde/cantina/internal/app/routes"
	appServices "github.com/cantinaverde/cantina/internal/app/services"
	"github.com/cantinaverde/cantina/internal/config"
	"github.com/cantinaverde/cantina/internal/db"
	appMiddleware "github.com/cantinaverde/cantina/internal/middleware"
	pkgAuth "github.com/cantinaverde/cantina/internal/pkg/auth"
	"github.com/cantinaverde/cantina/internal/pkg/helpers"
	"github.com/cantinaverde/cantina/internal/pkg/logger"
	"github.com/cantinaverde/cantina/internal/pkg/websocket"
	"github.com/cantinaverde/cantina/internal/seed"
	"github.com/cantinaverde/cantina/migrations"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos      *appRepos.Repositories
	JWTService *pkgAuth.JWTService
	Hub        *websocket.Hub

	AuthService     *appServices.AuthService
	TableService    *appServices.TableService
	StockService    *appServices.StockService
	StudentService  *appServices.StudentService
	ReleaseService  *appServices.ReleaseService
	ReportService   *appServices.ReportService
	AuthMiddleware  *appMiddleware.AuthMiddleware
	RealtimeHandler *websocket.Handler

	AuthController     *appControllers.AuthController
	TableController    *appControllers.TableController
	RPCController      *appControllers.RPCController
	FunctionController *appControllers.FunctionController

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, applies the embedded
// migrations and resets the default accounts.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool).Migrate(ctx, migrations.Files); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Canteen.SeedDefaultUsers {
		users := appRepos.NewUserRepository(dbPool)
		if err := seed.CreateDefaultData(ctx, users, cfg.Canteen.DefaultPassword, lgr); err != nil {
			// Startup continues; login for the default accounts may fail
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenExp:    helpers.ParseDuration(cfg.JWT.TokenExpiration, 8*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})

	deps.Hub = websocket.NewHub(logger.Component("realtime"))
	deps.RealtimeHandler = websocket.NewHandler(deps.Hub, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || appMiddleware.IsAllowedOrigin(origin, cfg.Server.AllowedOrigins)
	}, logger.Component("realtime"))

	recentWindow := helpers.ParseDuration(cfg.Canteen.RecentReleaseWindow, time.Hour)

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, logger.Component("auth"))
	deps.TableService = appServices.NewTableService(deps.Repos.CrudRepository, deps.Repos.UserRepository, deps.Hub, logger.Component("crud"))
	deps.StockService = appServices.NewStockService(deps.Repos.StockRepository, deps.Hub, logger.Component("stock"))
	deps.StudentService = appServices.NewStudentService(deps.Repos.StudentRepository, logger.Component("students"))
	deps.ReleaseService = appServices.NewReleaseService(deps.Repos.ReleaseRepository, deps.Repos.StudentRepository, recentWindow, logger.Component("releases"))
	deps.ReportService = appServices.NewReportService(deps.Repos.ReportRepository, cfg.Canteen.ExpiryAlertDays, logger.Component("reports"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.TableController = appControllers.NewTableController(deps.TableService, lgr)
	deps.RPCController = appControllers.NewRPCController(deps.StockService, lgr)
	deps.FunctionController = appControllers.NewFunctionController(
		deps.StudentService,
		deps.ReleaseService,
		deps.ReportService,
		lgr,
	)

	lgr.Info().Strs("tables", appRepos.TableNames()).Msg("Generic table API ready")
	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.TableController,
		deps.RPCController,
		deps.FunctionController,
		deps.RealtimeHandler,
		deps.AuthMiddleware,
		appMiddleware.RateLimitByIP(cfg.Server.LoginRateLimit, time.Minute),
	)

	return router
}
