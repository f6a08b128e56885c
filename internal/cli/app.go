package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"tempoiq/config"
	"tempoiq/internal/client"
	"tempoiq/internal/logger"
	"tempoiq/internal/metrics"
	"tempoiq/internal/stats"
)

// App bundles the services shared by every command
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Stats   *stats.StatsCollector
	Client  *client.Client
}

// NewApp loads the configuration, applies environment and flag overrides
// and builds the logger, metrics and API client
func NewApp(opts *RootOptions) (*App, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()
	cfg.ApplyOverrides(opts.Host, opts.Port, opts.LogLevel, opts.Timeout)
	if opts.Insecure {
		secure := false
		cfg.API.Secure = &secure
	}
	if opts.Verbose && opts.LogLevel == "" {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m, err = metrics.NewMetrics(prometheus.NewRegistry())
		if err != nil {
			return nil, err
		}
	}

	collector := stats.NewStatsCollector()

	return &App{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
		Stats:   collector,
		Client: client.New(cfg.API, log,
			client.WithMetrics(m),
			client.WithStats(collector)),
	}, nil
}

// Close pushes metrics when a pushgateway is configured, reports stats in
// verbose mode and flushes the logger
func (a *App) Close(ctx context.Context, formatter *OutputFormatter) {
	if ctx == nil {
		ctx = context.Background()
	}

	if a.Metrics != nil && a.Config.Metrics.PushGateway != "" {
		if err := a.Metrics.Push(ctx, a.Config.Metrics.PushGateway, a.Config.Metrics.Job); err != nil {
			a.Logger.Warn("failed to push metrics",
				"gateway", a.Config.Metrics.PushGateway,
				"error", err)
		}
	}

	if data, err := a.Stats.GetStatsJSON(); err == nil {
		formatter.VerboseLog("stats: %s", data)
	}

	_ = a.Logger.Sync()
}
