package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmagro/seal-blob-bot/internal/blob"
	"github.com/dmagro/seal-blob-bot/internal/config"
	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/proxy"
	"github.com/dmagro/seal-blob-bot/internal/publisher"
	"github.com/dmagro/seal-blob-bot/internal/workflow"
)

// app carries the state shared by every subcommand once the root
// PersistentPreRunE has loaded config and built the logger.
type app struct {
	cfgPath string
	logFile string
	noColor bool

	in  *bufio.Reader
	out io.Writer

	cfg     *config.Config
	log     *output.Logger
	runID   string
	closers []func() error
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: bufio.NewReader(in), out: out}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sealbot",
		Short:         "Seal allowlist/subscription blob bot for Sui",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.DefaultPath, "Path to config file (built-in defaults when the default path is missing)")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Also write JSON log events to this file")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(a.runCmd())
	root.AddCommand(a.publishersCmd())
	root.AddCommand(a.proxiesCmd())
	root.AddCommand(a.walletsCmd())

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor {
		output.DisableColors()
	}
	if err := config.LoadEnv(); err != nil {
		return err
	}

	var err error
	if cmd.Flags().Changed("config") {
		a.cfg, err = config.Load(a.cfgPath)
	} else {
		a.cfg, err = config.LoadOrDefault(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a.runID = uuid.NewString()
	handlers := []output.Handler{output.NewConsole(a.out)}
	if a.logFile != "" {
		f, err := os.OpenFile(a.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		handlers = append(handlers, output.NewStructured(f, a.runID))
	}
	a.log = output.New(handlers...)
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

func (a *app) endpoints() []publisher.Endpoint {
	eps := make([]publisher.Endpoint, len(a.cfg.Publishers))
	for i, p := range a.cfg.Publishers {
		eps[i] = publisher.Endpoint{Name: p.Name, URL: p.URL}
	}
	return eps
}

func (a *app) settings() workflow.Settings {
	return workflow.Settings{
		PackageID:    a.cfg.PackageID,
		GasBudget:    a.cfg.GasBudget,
		Epochs:       a.cfg.Upload.Epochs,
		ServicePrice: a.cfg.Service.Price,
		ServiceTTL:   a.cfg.Service.TTL,
	}
}

func (a *app) newUploader(proxies *proxy.Rotator) (*blob.Uploader, error) {
	pool, err := publisher.NewPool(a.endpoints())
	if err != nil {
		return nil, err
	}
	cfg := blob.Config{
		MaxAttempts: a.cfg.Upload.MaxAttempts,
		Delay:       a.cfg.Upload.Delay,
		Timeout:     a.cfg.Upload.Timeout,
	}
	return blob.NewUploader(pool, proxies, cfg, a.log), nil
}
