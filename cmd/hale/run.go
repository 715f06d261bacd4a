package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kahiteam/hale/internal/config"
	"github.com/kahiteam/hale/internal/events"
	"github.com/kahiteam/hale/internal/logging"
	"github.com/kahiteam/hale/internal/metrics"
	"github.com/kahiteam/hale/internal/process"
	"github.com/kahiteam/hale/internal/supervisor"
	"github.com/kahiteam/hale/internal/version"
)

// options holds the raw command-line flags.
type options struct {
	singleChild   bool
	survive       bool
	verbose       bool
	showVersion   bool
	printConfig   bool
	rewrites      []string
	actions       []string
	configPath    string
	logFormat     string
	metricsListen string
	shell         string
}

func (o *options) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&o.singleChild, "single-child", "c", false,
		"run in single-child mode: signals go only to the child, not its process group")
	f.BoolVarP(&o.survive, "survive-bereaving", "b", false,
		"keep running after the child exits until no descendant remains")
	f.StringArrayVarP(&o.rewrites, "rewrite", "r", nil,
		"rewrite signal s to r before forwarding, as s:r (repeatable); r=0 drops s, s=0 sets the default")
	f.StringArrayVarP(&o.actions, "action", "a", nil,
		"run cmd through the shell instead of forwarding signal s, as s:cmd (repeatable)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "print debugging information to stderr")
	f.BoolVarP(&o.showVersion, "version", "V", false, "print version information and exit")
	f.BoolVar(&o.printConfig, "print-config", false, "print a sample config file and exit")
	f.StringVar(&o.configPath, "config", "",
		"config file (default: $"+config.EnvConfig+", /etc/hale/hale.toml, /etc/hale.toml)")
	f.StringVar(&o.logFormat, "log-format", config.DefaultLogFormat, "log format: text or json")
	f.StringVar(&o.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	f.StringVar(&o.shell, "shell", config.DefaultShell, "interpreter for actions")
}

func run(cmd *cobra.Command, o *options, args []string) error {
	if o.showVersion {
		return printVersion(cmd.OutOrStdout())
	}
	if o.printConfig {
		_, err := fmt.Fprint(cmd.OutOrStdout(), config.DefaultConfigTOML)
		return err
	}
	if len(args) == 0 {
		return errors.New("no command given")
	}

	cfg, warnings, err := resolveConfig(o, cmd.Flags(), os.Getenv)
	if err != nil {
		return err
	}

	logger := logging.New(logging.LogConfig{
		Level:  logging.LevelFor(cfg.Verbose),
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	for _, w := range warnings {
		logger.Warn("config warning", "warning", w)
	}

	table, err := cfg.BuildTable()
	if err != nil {
		return err
	}

	bus := events.NewBus(logger)
	if cfg.MetricsListen != "" {
		stop, err := serveMetrics(cfg.MetricsListen, bus, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	sup := supervisor.New(supervisor.SupervisorConfig{
		Command:          args[0],
		Args:             args[1:],
		Table:            table,
		Group:            process.NewGroupController(cfg.GroupMode(), process.StdinTTY(), logger),
		SurviveBereaving: cfg.SurviveBereaving,
		Shell:            cfg.Shell,
		Subreaper:        true,
		Bus:              bus,
		Logger:           logger,
	})

	code, err := sup.Run()
	if err != nil {
		logger.Error("supervisor failed", "error", err)
	}
	if code != 0 {
		return exitStatus(code)
	}
	return nil
}

// resolveConfig merges, from lowest to highest precedence: defaults, the
// config file, environment overrides and explicitly set flags. Rewrites and
// actions accumulate, file entries first, so flags win on conflicts.
func resolveConfig(o *options, flags *pflag.FlagSet, getenv func(string) string) (*config.Config, []string, error) {
	cfg, _, warnings, err := config.LoadOptional(o.configPath)
	if err != nil {
		return nil, warnings, err
	}

	config.ApplyEnv(cfg, getenv)

	if flags.Changed("single-child") {
		cfg.SingleChild = o.singleChild
	}
	if flags.Changed("survive-bereaving") {
		cfg.SurviveBereaving = o.survive
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if flags.Changed("shell") {
		cfg.Shell = o.shell
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("metrics-listen") {
		cfg.MetricsListen = o.metricsListen
	}
	cfg.Rewrite = append(cfg.Rewrite, o.rewrites...)
	cfg.Action = append(cfg.Action, o.actions...)

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, warnings, errors.Join(errs...)
	}
	return cfg, warnings, nil
}

// serveMetrics starts the metrics endpoint fed by bus and returns a
// function that stops it.
func serveMetrics(addr string, bus *events.Bus, logger *slog.Logger) (func(), error) {
	c := metrics.New()
	c.SetBuildInfo(version.Version, version.Go())
	c.Attach(bus)

	srv := metrics.NewServer(c, logger)
	if err := srv.Start(addr); err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}, nil
}
