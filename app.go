package hueweb

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kradalby/kra/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kradalby/hue-web/bridge"
	appconfig "github.com/kradalby/hue-web/config"
	"github.com/kradalby/hue-web/events"
	"github.com/kradalby/hue-web/logging"
	"github.com/kradalby/hue-web/metrics"
	"github.com/kradalby/hue-web/page"
	"github.com/kradalby/hue-web/state"
)

var version = "dev"

// Main is the entry point used by cmd/hue-web.
func Main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	slog.Info("Starting hue-web dashboard",
		"version", version,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
	)

	slog.Info("Configuration loaded",
		"web_addr", cfg.WebAddrPort().String(),
		"fixture", cfg.FixturePath,
	)

	snapshot, err := bridge.LoadFixture(cfg.FixturePath)
	if err != nil {
		slog.Error("Failed to load bridge fixture", "error", err)
		os.Exit(1)
	}

	slog.Info("Loaded bridge snapshot",
		"bridge_name", snapshot.Config.Name,
		"lights", len(snapshot.Lights),
		"groups", len(snapshot.Groups),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eventBus, err := events.New(logger)
	if err != nil {
		slog.Error("Failed to initialize eventbus", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			slog.Warn("Error closing eventbus", "error", err)
		}
	}()

	metricsCollector, err := metrics.NewCollector(ctx, logger, eventBus, nil)
	if err != nil {
		slog.Error("Failed to initialize metrics collector", "error", err)
		os.Exit(1)
	}
	defer metricsCollector.Close()

	bridgeService, err := bridge.NewService(snapshot, eventBus, logger)
	if err != nil {
		slog.Error("Failed to initialize bridge service", "error", err)
		os.Exit(1)
	}

	bridgeCfg := bridgeService.Config()
	store := state.NewStore(&bridgeCfg)
	registry := page.NewRegistry(logger, cfg.SessionLimit)

	kraOpts := []web.Option{
		web.WithStdLogger(log.New(os.Stdout, "kraweb: ", log.LstdFlags)),
		web.WithLogger(logger),
		web.WithTailscaleStateDir(cfg.TailscaleStateDir),
	}

	enableTailscale := cfg.TailscaleAuthKey != ""
	kraConfig := web.ServerConfig{
		Hostname:        cfg.TailscaleHostname,
		LocalAddr:       cfg.WebAddrPort().String(),
		AuthKey:         cfg.TailscaleAuthKey,
		EnableTailscale: enableTailscale,
	}

	kraWeb, err := web.NewServer(kraConfig, kraOpts...)
	if err != nil {
		slog.Error("Failed to configure web server", "error", err)
		os.Exit(1)
	}

	webServer := NewWebServer(logger, bridgeService, bridgeService, store, registry, eventBus, kraWeb, cfg.DashboardName)
	webServer.LogEvent("Server starting...")
	webServer.Start(ctx)
	defer webServer.Close()

	kraWeb.Handle("/", http.HandlerFunc(webServer.HandleIndex))
	kraWeb.Handle("/ui/event/", http.HandlerFunc(webServer.HandleUIEvent))
	kraWeb.Handle("/prefs", http.HandlerFunc(webServer.HandlePrefs))
	kraWeb.Handle("/bridge/config", http.HandlerFunc(webServer.HandleBridgeConfig))
	kraWeb.Handle("/events", http.HandlerFunc(webServer.HandleSSE))
	kraWeb.Handle("/health", http.HandlerFunc(webServer.HandleHealth))
	kraWeb.Handle("/metrics", promhttp.Handler())

	SetupDebugHandlers(kraWeb, registry, webServer)

	webURL := fmt.Sprintf("http://%s", cfg.WebAddrPort().String())
	if enableTailscale {
		webURL = fmt.Sprintf("https://%s (and http://%s)", cfg.TailscaleHostname, cfg.WebAddrPort().String())
	}
	slog.Info("Web UI available", "url", webURL)

	bridgeClient, err := eventBus.Client(events.ClientBridge)
	if err != nil {
		slog.Error("Failed to get bridge client", "error", err)
		os.Exit(1)
	}
	eventBus.PublishConnectionStatus(bridgeClient, events.ConnectionStatusEvent{
		Timestamp: time.Now(),
		Component: "bridge",
		Status:    events.ConnectionStatusConnected,
	})

	slog.Info("Server running, press Ctrl+C to stop")
	<-ctx.Done()
	slog.Info("Shutting down...")

	eventBus.PublishConnectionStatus(bridgeClient, events.ConnectionStatusEvent{
		Timestamp: time.Now(),
		Component: "bridge",
		Status:    events.ConnectionStatusDisconnected,
	})
	slog.Info("Shutdown complete")
}
