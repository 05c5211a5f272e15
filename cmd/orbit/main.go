package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orbit/internal/capture"
	"orbit/internal/config"
	"orbit/internal/ics"
	appLog "orbit/internal/log"
	"orbit/internal/refresh"
	"orbit/internal/store"
	"orbit/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.Resolve(flags.configPath)

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	} else {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Info("orbit starting", "version", version)

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone", err)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"ics_refresh", conf.ICSRefreshCron,
		"insight_days", conf.InsightDays,
		"state_path", conf.StatePath,
		"ics_count", len(conf.ICS),
		"capture", conf.Capture.Enabled,
		"once", flags.once,
	)

	st, err := store.Open(store.Options{
		Path:                conf.StatePath,
		PresetDir:           conf.PresetDir,
		DefaultEventMinutes: conf.DefaultEventMinutes,
	})
	if err != nil {
		appLog.Error("failed to open state", err, "path", conf.StatePath)
		os.Exit(1)
	}

	sched, err := refresh.New(st, schedulerOptions(conf, loc))
	if err != nil {
		appLog.Error("failed to create scheduler", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx, sched); err != nil {
			appLog.Error("single refresh failed", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		if err := sched.SyncICS(ctx); err != nil {
			appLog.Error("initial ics sync finished with errors", err)
		}
	}()
	sched.Start()

	srv := web.NewServer(st, web.Options{
		Location:    loc,
		InsightDays: conf.InsightDays,
		BasicAuth:   conf.BasicAuth,
	})
	if err := srv.Run(ctx, conf.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("http server failed", err)
		cancel()
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
	appLog.Info("orbit exiting")
}

// runOnce syncs ICS sources, runs one refresh tick and prints the
// dashboard JSON to stdout.
func runOnce(ctx context.Context, sched *refresh.Scheduler) error {
	if err := sched.SyncICS(ctx); err != nil {
		appLog.Error("ics sync finished with errors", err)
	}
	dash, err := sched.Tick(ctx)
	if err != nil && dash.GeneratedAt.IsZero() {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dash)
}

func schedulerOptions(conf *config.Config, loc *time.Location) refresh.Options {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			if c.Name != "" {
				id = c.Name
			} else {
				id = c.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, Name: c.Name, URL: c.URL})
	}

	capOpts := capture.Options{
		URL:        conf.Capture.URL,
		OutputPath: conf.Capture.OutputPath,
		Width:      conf.Capture.Width,
		Height:     conf.Capture.Height,
	}
	if conf.BasicAuth != nil {
		capOpts.Username = conf.BasicAuth.Username
		capOpts.Password = conf.BasicAuth.Password
	}

	return refresh.Options{
		Location:       loc,
		RefreshCron:    conf.RefreshCron,
		ICSCron:        conf.ICSRefreshCron,
		InsightDays:    conf.InsightDays,
		Sources:        sources,
		Fetcher:        ics.NewFetcher(conf.ICSCacheDir),
		CaptureEnabled: conf.Capture.Enabled,
		CaptureOptions: capOpts,
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/orbit/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one ICS sync and refresh tick, print the dashboard JSON and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
