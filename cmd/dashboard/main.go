package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/invoice-dashboard/internal/config"
	"github.com/totegamma/invoice-dashboard/internal/infra/cache"
	"github.com/totegamma/invoice-dashboard/internal/infra/database"
	"github.com/totegamma/invoice-dashboard/internal/infra/repository"
	"github.com/totegamma/invoice-dashboard/internal/infra/telemetry"
	"github.com/totegamma/invoice-dashboard/internal/present/rest"
	authmw "github.com/totegamma/invoice-dashboard/internal/present/rest/middleware"
	"github.com/totegamma/invoice-dashboard/internal/service"
	"github.com/totegamma/invoice-dashboard/internal/usecase"
)

const serviceName = "invoice-dashboard"

var version = "unknown"

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	defaultPath := os.Getenv("DASHBOARD_CONFIG")
	if defaultPath == "" {
		defaultPath = "/etc/dashboard/config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", *configPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(conf.Server.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.SetupTraceProvider(ctx, conf.Server.TraceEndpoint, serviceName, version)
		if err != nil {
			panic(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	var signals *service.SignalService
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		defer rdb.Close()
		signals = service.NewSignalService(rdb)
	}

	var mc *memcache.Client
	if conf.Server.MemcachedAddr != "" {
		mc = database.NewMemcached(conf.Server.MemcachedAddr)
	}
	pages := cache.NewPageCache(mc, conf.Server.CacheTTL(), signals != nil)

	var revalidator *service.RevalidateService
	if signals != nil {
		revalidator = service.NewRevalidateService(pages, signals)
	} else {
		revalidator = service.NewRevalidateService(pages, nil)
	}

	go func() {
		err := revalidator.Listen(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Error("revalidate listener stopped", slog.String("error", err.Error()), slog.String("module", "main"))
		}
	}()

	sessionConfig := conf.Auth.Session()
	authService := service.NewAuthService(sessionConfig)
	hasher := service.NewBcryptHasher(conf.Auth.BcryptCost)

	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)

	invoiceUsecase := usecase.NewInvoiceUsecase(invoiceRepo, revalidator)
	authUsecase := usecase.NewAuthUsecase(&usecase.AuthConfig{
		Providers: []usecase.CredentialsProvider{
			usecase.NewCredentialsAuthorizer(usecase.NewCredentialVerifier(userRepo, hasher)),
		},
		Sessions: authService,
	})

	var realtime rest.Realtime
	if signals != nil {
		realtime = signals
	}

	handler := rest.NewHandler(
		sessionConfig,
		invoiceUsecase,
		authUsecase,
		pages,
		realtime,
		authmw.NewAuthMiddleware(authService, sessionConfig),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(serviceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return c.Path() == "/healthz"
	})))

	handler.RegisterRoutes(e)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("starting dashboard", slog.String("listen", conf.Server.Listen), slog.String("version", version))
	err = e.Start(conf.Server.Listen)
	if err != nil && ctx.Err() == nil {
		e.Logger.Fatal(err)
	}
}
