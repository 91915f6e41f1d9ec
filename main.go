package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"codecalm/internal/bridge"
	"codecalm/internal/config"
	"codecalm/internal/database"
	"codecalm/internal/gate"
	"codecalm/internal/logging"
	"codecalm/internal/models"
	"codecalm/internal/repository"
	"codecalm/internal/router"
	"codecalm/internal/services"
	"codecalm/internal/store"
	"codecalm/internal/telemetry"
)

func main() {
	// Initialize Logger
	log, err := logging.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Core components; applyConfig pushes settings into them on startup
	// and again on every config hot reload.
	baseline := telemetry.NewBaseline()
	monitor := telemetry.NewMonitor(log, baseline)
	g := gate.New(log, gate.NewLogPresenter(log), repository.GateRecorder{})

	applyConfig := func() {
		cfg := config.Conf
		monitor.SetLanguageEnabled(models.LanguageC, cfg.Monitor.EnableC)
		monitor.SetLanguageEnabled(models.LanguageCPP, cfg.Monitor.EnableCpp)
		g.SetThreshold(cfg.Gate.AnxietyThreshold)
		g.SetCooldown(cfg.Gate.Cooldown())
		g.SetShowNotifications(cfg.Gate.ShowNotifications)
		g.SetMessages(cfg.Gate.RelaxationMessages, cfg.Gate.EncouragementMessages, cfg.Gate.SuccessMessages)
		g.SetHints(cfg.Gate.ErrorHints)
	}

	// Initialize Configuration
	if err := config.Init(".", log, applyConfig); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	applyConfig()

	// Initialize Database
	if err := database.Init(log); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Inference worker bridge. A failed worker start is not fatal; the
	// service still records telemetry and the stats surface keeps working.
	det := config.Conf.Detector
	br := bridge.New(bridge.Config{
		SocketPath:      det.SocketPath,
		SettleDelay:     time.Duration(det.SettleSeconds) * time.Second,
		ConnectAttempts: det.ConnectAttempts,
	}, log)
	if err := br.Start(det.WorkerPath, det.ModelDir); err != nil {
		log.Warn("Detector worker unavailable", zap.Error(err))
	}

	sessionLog := store.NewSessionLog(log, config.Conf.Monitor.DataDir)
	monitorService := services.NewMonitorService(log, monitor, baseline, br, g, sessionLog)

	sampler := services.NewSampler(log, monitor, br, g, config.Conf.Monitor.SampleInterval())
	sampler.Start()

	// Setup router, passing the logger to it
	r := router.Setup(log, monitorService, g)

	srv := &http.Server{
		Addr:    ":" + config.Conf.Server.Port,
		Handler: r,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("Server listening on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	// Finish the session before the process goes away.
	if monitor.IsMonitoring() {
		monitorService.StopMonitoring()
	}
	sampler.Stop()
	br.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown", zap.Error(err))
	}
}
