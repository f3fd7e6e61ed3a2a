package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	"github.com/jhoicas/Inventario-agent/docs"
	"github.com/jhoicas/Inventario-agent/internal/application/agent"
	"github.com/jhoicas/Inventario-agent/internal/application/auth"
	"github.com/jhoicas/Inventario-agent/internal/application/catalog"
	"github.com/jhoicas/Inventario-agent/internal/application/movement"
	"github.com/jhoicas/Inventario-agent/internal/application/notification"
	"github.com/jhoicas/Inventario-agent/internal/application/report"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/backend"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/localnotify"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Inventario-agent/internal/infrastructure/pdf"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-agent/internal/interfaces/http"
	"github.com/jhoicas/Inventario-agent/pkg/config"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// stores repositorios locales: PostgreSQL si hay base configurada, memoria si no.
type stores struct {
	notifications repository.NotificationRepository
	settings      repository.SettingsRepository
	alertStates   repository.AlertStateRepository
	close         func()
}

func openStores(ctx context.Context, cfg config.DBConfig, log *logger.Logger) stores {
	if !cfg.Enabled() {
		log.Info().Msg("sin base de datos configurada: almacenamiento local en memoria")
		return stores{
			notifications: memory.NewNotificationRepository(),
			settings:      memory.NewSettingsRepository(),
			alertStates:   memory.NewAlertStateRepository(),
			close:         func() {},
		}
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("crear esquema local")
	}
	log.Info().Msg("almacenamiento local en PostgreSQL")
	return stores{
		notifications: postgres.NewNotificationRepository(pool),
		settings:      postgres.NewSettingsRepository(pool),
		alertStates:   postgres.NewAlertStateRepository(pool),
		close:         pool.Close,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("api", cfg.API.BaseURL).
		Msg("iniciando agente")

	ctx := context.Background()
	st := openStores(ctx, cfg.DB, log)
	defer st.close()

	client, err := backend.New(cfg.API.BaseURL, cfg.API.Timeout, log, backend.WithUserAgent(cfg.App.Name))
	if err != nil {
		log.Fatal().Err(err).Msg("cliente del backend")
	}

	// Las entregas se registran en el log y las recurrentes además en la lista local.
	platform := localnotify.New(cfg.Device.GrantNotifications, log,
		localnotify.WithSink(localnotify.MultiSink{
			localnotify.NewLogSink(log),
			localnotify.NewInboxSink(st.notifications, log),
		}),
	)
	defer platform.Close()

	engine := notification.NewEngine(platform, st.settings, st.notifications, log)
	products := catalog.NewProductStore(client, log)
	syncer := notification.NewSyncer(client, st.notifications, engine,
		entity.Device{Token: cfg.Device.PushToken, Platform: cfg.Device.Platform, DeviceID: cfg.Device.DeviceID},
		notification.SyncConfig{
			Interval:   cfg.Sync.Interval,
			MaxBackoff: cfg.Sync.MaxBackoff,
			Jitter:     cfg.Sync.Jitter,
		}, log)

	a := agent.New(agent.Deps{
		Products:      products,
		Departments:   catalog.NewDepartmentService(client, log),
		Clients:       catalog.NewClientService(client),
		Movements:     movement.NewService(client, log),
		Notifications: engine,
		Monitor:       notification.NewStockMonitor(engine, st.alertStates, log),
		Syncer:        syncer,
		Reports: report.NewService(report.Deps{
			Dashboard: client,
			Movements: client,
			Settings:  client,
			Products:  products,
			Generator: infrapdf.NewMarotoReportGenerator(),
			Dir:       cfg.Report.Dir,
		}, log),
		Dashboard:       client,
		Settings:        client,
		RefreshInterval: cfg.Agent.RefreshInterval,
	}, log)

	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	if err := a.Start(startCtx); err != nil {
		cancelStart()
		log.Fatal().Err(err).Msg("arrancar agente")
	}
	cancelStart()

	if cfg.Agent.PasswordHash == "" {
		log.Warn().Msg("AGENT_PASSWORD_HASH vacío: nadie podrá iniciar sesión en la API local")
	}
	authUC := auth.NewAuthUseCase([]entity.Operator{{
		Username:     cfg.Agent.User,
		PasswordHash: cfg.Agent.PasswordHash,
		Role:         cfg.Agent.Role,
	}}, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Host = cfg.HTTP.Addr()
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Agent API",
	}))
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return err
		}
		c.Type("json")
		return c.SendString(doc)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Agent:     a,
		AuthUC:    authUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando agente...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	a.Stop()

	log.Info().Msg("agente detenido")
}
