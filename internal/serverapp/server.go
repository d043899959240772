package serverapp

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/studiorevonza/Task.One-sub000/internal/activity"
	"github.com/studiorevonza/Task.One-sub000/internal/auth"
	"github.com/studiorevonza/Task.One-sub000/internal/clock"
	"github.com/studiorevonza/Task.One-sub000/internal/config"
	"github.com/studiorevonza/Task.One-sub000/internal/httpmw"
	"github.com/studiorevonza/Task.One-sub000/internal/notify"
	"github.com/studiorevonza/Task.One-sub000/internal/project"
	"github.com/studiorevonza/Task.One-sub000/internal/reminder"
	"github.com/studiorevonza/Task.One-sub000/internal/seed"
	"github.com/studiorevonza/Task.One-sub000/internal/suggest"
	"github.com/studiorevonza/Task.One-sub000/internal/task"
	"github.com/studiorevonza/Task.One-sub000/internal/timeentry"
)

type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	Clock  clock.Clock

	// DB overrides the connection built from Config.DatabaseURL, used
	// by tests that bring their own database.
	DB *sqlx.DB
}

// App bundles the HTTP handler with the background pieces that need an
// explicit shutdown.
type App struct {
	Handler   http.Handler
	Scheduler *reminder.Scheduler
	Hub       *notify.Hub

	db *sqlx.DB
}

// Close stops the reminder scheduler and releases the database pool.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	log := opts.Logger
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if strings.TrimSpace(dataDir) == "" {
		dataDir = "data"
	}

	app := &App{}

	// Storage: PostgreSQL when a DSN is configured, in-memory otherwise.
	var (
		taskRepo    task.Repo
		projectRepo project.Repo
		entryRepo   timeentry.Repo
	)
	db := opts.DB
	if db == nil && cfg.DatabaseURL != "" {
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.db = db
	}
	if db != nil {
		tr := task.NewSQLRepo(db, clk)
		if err := tr.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		pr := project.NewSQLRepo(db, clk)
		if err := pr.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		er := timeentry.NewSQLRepo(db, clk)
		if err := er.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		taskRepo, projectRepo, entryRepo = tr, pr, er
		log.Info().Msg("using postgres storage")
	} else {
		taskRepo = task.NewMemoryRepo(clk)
		projectRepo = project.NewMemoryRepo(clk)
		entryRepo = timeentry.NewMemoryRepo(clk)
		log.Info().Msg("using in-memory storage")
	}

	authRepo, err := auth.NewFileRepo(filepath.Join(dataDir, "auth"))
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(authRepo, log)
	authHandler := auth.NewHandler(authService, clk)

	hub := notify.NewHub(log)
	app.Hub = hub

	activityRepo := activity.NewMemoryRepository(clk)
	recorder := activity.Recorder{Repo: activityRepo, Log: log}

	taskHandler := task.NewHandler(taskRepo)
	taskHandler.SetNotifier(hub)
	taskHandler.SetRecorder(recorder)

	projectHandler := project.NewHandler(projectRepo, taskRepo)
	projectHandler.SetRecorder(recorder)

	entryHandler := timeentry.NewHandler(entryRepo, clk)
	entryHandler.SetRecorder(recorder)
	activityHandler := activity.NewHandler(activityRepo, clk)

	var suggester suggest.Suggester
	if cfg.AnthropicAPIKey != "" {
		suggester = suggest.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}
	suggestHandler := suggest.NewHandler(suggester, taskRepo)
	suggestHandler.SetRecorder(recorder)

	scheduler := reminder.NewScheduler(taskRepo, clk, loc, log)
	scheduler.SetNotifier(hub)
	scheduler.SetRecorder(recorder)
	if cfg.ReminderSchedule != "" {
		if err := scheduler.Start(cfg.ReminderSchedule); err != nil {
			return nil, err
		}
		app.Scheduler = scheduler
	}

	if cfg.SeedFile != "" {
		if err := seed.Apply(ctx, cfg.SeedFile, taskRepo, projectRepo, log); err != nil {
			return nil, err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(httpmw.WithRequestID(), httpmw.WithAccessLog(log), httpmw.WithRecover(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"service": "taskone",
			"time":    clk.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if app.db != nil {
			if err := app.db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	hub.Register(r.Group("/"))

	api := r.Group("/api")
	authHandler.Register(api, auth.LogSender{Svc: authService})

	protected := api.Group("")
	protected.Use(authHandler.RequireAPI())
	taskHandler.Register(protected)
	projectHandler.Register(protected)
	entryHandler.Register(protected)
	activityHandler.Register(protected)
	suggestHandler.Register(protected)

	app.Handler = r
	return app, nil
}
