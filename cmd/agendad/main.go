package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"agendacal/internal/clock"
	"agendacal/internal/config"
	"agendacal/internal/ics"
	appLog "agendacal/internal/log"
	"agendacal/internal/query"
	"agendacal/internal/refresh"
	"agendacal/internal/store"
	"agendacal/internal/view"
	"agendacal/internal/web"
)

var version = "0.1.0-dev"

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("agendad starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if !flags.debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"cache_ttl_seconds", conf.CacheTTLSeconds,
		"once", flags.once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf, flags.once); err != nil {
		appLog.Error("agendad stopped with error", err)
		os.Exit(1)
	}
	appLog.Info("agendad exiting")
}

func run(ctx context.Context, conf *config.Config, once bool) error {
	clk := clock.Real()
	loc := conf.Location()

	mem := store.NewMemory()
	if conf.DataFile != "" {
		n, err := mem.LoadFile(conf.DataFile)
		if err != nil {
			return err
		}
		appLog.Info("seed records loaded", "path", conf.DataFile, "records", n)
	}

	feeds := make([]refresh.Feed, 0, len(conf.ICS))
	for _, f := range conf.ICS {
		feeds = append(feeds, refresh.Feed{
			Source: ics.Source{ID: f.ID, URL: f.URL},
			UserID: f.UserID,
			Kind:   f.Kind,
		})
	}

	var server *web.Server
	refresher := refresh.New(ics.NewFetcher(conf.CacheDir, nil), mem, feeds, clk, refresh.Options{
		Location:    loc,
		PastDays:    conf.PastDays,
		HorizonDays: conf.HorizonDays,
		OnRefresh: func() {
			if server != nil {
				server.InvalidateCache()
			}
		},
	})

	if err := refresher.RunOnce(ctx); err != nil {
		appLog.Warn("initial refresh had failures", "reason", err)
	}
	if once {
		return nil
	}

	server = web.NewServer(conf, web.Deps{
		Queries: query.NewHandler(mem, conf.PageLimit),
		Views: view.NewBuilder(clk, view.Options{
			Location:        loc,
			WeekStart:       conf.WeekStartDay(),
			MaxMonthItems:   conf.MaxMonthItems,
			DefaultDuration: conf.DefaultDurationMinutes,
		}),
		Refresher: refresher,
		Clock:     clk,
	})

	if len(feeds) > 0 {
		if err := refresher.Start(ctx, conf.RefreshCron); err != nil {
			return err
		}
		defer refresher.Stop()
	}

	return server.Run(ctx)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	fs := pflag.NewFlagSet("agendad", pflag.ExitOnError)
	fs.StringVarP(&cfg.configPath, "config", "c", "/etc/agendacal/config.yaml", "Path to config file")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.BoolVar(&cfg.once, "once", false, "Refresh feeds once and exit")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	_ = fs.Parse(os.Args[1:])

	return cfg
}
