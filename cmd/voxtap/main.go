// Voxtap is a daemon that turns typed or spoken instructions into device
// automation actions: opening apps, tapping, swiping and inserting text.
//
// Usage:
//
//	voxtap [flags]
//	voxtap --config /path/to/voxtap.yaml
//
// @title        voxtap API
// @version      1.0
// @description  Typed and spoken instructions executed as device automation actions.
// @BasePath     /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nadzzz/voxtap/internal/automation"
	"github.com/nadzzz/voxtap/internal/automation/adb"
	"github.com/nadzzz/voxtap/internal/automation/bridge"
	"github.com/nadzzz/voxtap/internal/config"
	"github.com/nadzzz/voxtap/internal/coordinator"
	"github.com/nadzzz/voxtap/internal/dispatch"
	"github.com/nadzzz/voxtap/internal/gate"
	"github.com/nadzzz/voxtap/internal/health"
	"github.com/nadzzz/voxtap/internal/metrics"
	"github.com/nadzzz/voxtap/internal/speech/whisper"
	"github.com/nadzzz/voxtap/internal/transport"
	grpctransport "github.com/nadzzz/voxtap/internal/transport/grpc"
	httptransport "github.com/nadzzz/voxtap/internal/transport/http"
	mqtttransport "github.com/nadzzz/voxtap/internal/transport/mqtt"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/voxtap.local.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("voxtap %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("voxtap starting", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var backend automation.Backend
	switch cfg.Automation.Backend {
	case "adb":
		backend = adb.New(cfg.Automation.ADB)
		slog.Info("using adb backend", "path", cfg.Automation.ADB.Path, "serial", cfg.Automation.ADB.Serial)
	case "bridge":
		backend = bridge.New(cfg.Automation.Bridge)
		slog.Info("using bridge backend", "endpoint", cfg.Automation.Bridge.Endpoint)
	}
	defer backend.Close()

	m := metrics.New()
	g := gate.New(cfg.Automation.Platform, backend, gate.WithCallTimeout(cfg.Automation.CallTimeout))
	if !g.Supported() {
		slog.Warn("automation is not supported on this platform", "platform", cfg.Automation.Platform)
	}

	dispatcher := dispatch.New(backend,
		dispatch.WithCallTimeout(cfg.Automation.CallTimeout),
		dispatch.WithMetrics(m))

	opts := []coordinator.Option{coordinator.WithMetrics(m)}
	if cfg.Speech.Enabled {
		recognizer := whisper.New(cfg.Speech)
		defer recognizer.Close()
		opts = append(opts, coordinator.WithRecognizer(recognizer))
		slog.Info("speech intake enabled", "endpoint", cfg.Speech.Endpoint, "type", cfg.Speech.Type)
	}
	coord := coordinator.New(g, dispatcher, opts...)

	// Initial status check so the presentation layer starts with a known state.
	if g.Supported() {
		if _, err := g.CheckStatus(ctx); err != nil {
			slog.Warn("accessibility service check failed", "error", err)
		}
	}

	var transports []transport.Transport

	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port, coord))
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, coord))
	}
	if cfg.Transports.MQTT.Enabled {
		transports = append(transports, mqtttransport.New(cfg.Transports.MQTT))
	}

	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		os.Exit(1)
	}

	healthServer := health.New(cfg.Server.HealthPort, m.Registry, coord.ServiceStatus)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, coord.Handle); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("voxtap ready",
		"transports", len(transports),
		"platform", g.Platform(),
		"service", g.Status().String(),
		"health_port", cfg.Server.HealthPort)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("voxtap stopped")
}
