package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"countdown_timer/internal/alarm"
	"countdown_timer/internal/clock"
	"countdown_timer/internal/config"
	"countdown_timer/internal/handlers"
	"countdown_timer/internal/logger"
	"countdown_timer/internal/models"
	"countdown_timer/internal/presets"
	"countdown_timer/internal/repository"
	"countdown_timer/internal/repository/db"
	"countdown_timer/internal/server"
	"countdown_timer/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	// alarmSlack is added to the tone length to bound a single playback.
	alarmSlack = 2 * time.Second
)

// @title           Countdown Timer API
// @version         1.0
// @description     Single countdown timer with shareable links, an event journal and a live WebSocket stream.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
func main() {
	// load config.yml + COUNTDOWN_* env
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// alarm playback runs on a worker pool; failures are journaled by the timer
	var timer service.Timer
	tone := alarm.Tone{
		FrequencyHz: cfg.Alarm.FrequencyHz,
		Beep:        cfg.Alarm.Beep,
		Gap:         cfg.Alarm.Gap,
		Beeps:       cfg.Alarm.Beeps,
		Volume:      cfg.Alarm.Volume,
	}
	async, err := alarm.NewAsync(newAlarm(cfg, tone, log), cfg.Alarm.Workers, tone.Duration()+alarmSlack, func(err error) {
		if timer != nil {
			timer.AlarmFailed(err)
		}
	})
	if err != nil {
		log.Fatalw("failed to init alarm", "err", err)
	}
	defer async.Close()

	sched := clock.NewTickerScheduler()
	defer sched.Close()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Clock:     clock.System,
		Scheduler: sched,
		Alarm:     async,
		Presets:   loadPresets(cfg, log),
		Log:       log.Named("timer"),
		Timer: service.TimerConfig{
			DefaultSeconds: cfg.Timer.DefaultSeconds,
			TickInterval:   cfg.Timer.TickInterval,
			ShareBaseURL:   cfg.Share.BaseURL,
		},
		Auth: service.AuthConfig{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
	})
	timer = services.Timer
	apiHandler := handlers.NewHandler(services, log.Named("http"), handlers.Config{AuthEnabled: cfg.Auth.Enabled})

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.Open(path)
}

// loadPresets falls back to the built-in list when the file is missing or broken.
func loadPresets(cfg *config.Config, log *logger.Logger) []models.Preset {
	if cfg.Timer.PresetsFile == "" {
		return presets.Defaults()
	}
	list, err := presets.Load(cfg.Timer.PresetsFile)
	if err != nil {
		log.Warnw("using default presets", "file", cfg.Timer.PresetsFile, "err", err)
		return presets.Defaults()
	}
	return list
}

// newAlarm opens the audio device, or returns a silent alarm when sound is
// disabled or no device is available.
func newAlarm(cfg *config.Config, tone alarm.Tone, log *logger.Logger) alarm.Alarm {
	if !cfg.Alarm.Enabled {
		log.Infow("alarm disabled in config")
		return alarm.Silent{}
	}
	speaker, err := alarm.NewSpeaker(tone)
	if err != nil {
		log.Warnw("audio output unavailable; alarm will be silent", "err", err)
		return alarm.Silent{}
	}
	return speaker
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
