package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"badgeforge/config"
	"badgeforge/export"
	"badgeforge/generator"
	"badgeforge/qr"
	"badgeforge/render"
	"badgeforge/routes"
	"badgeforge/session"

	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const programName = "badgeforge"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if globalFlags.debug {
		cfg.Debug = true
	}
	logger, err := config.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.With(zap.String("component", programName)), nil
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := config.LoadCatalog(cfg, logger)
	if err != nil {
		return err
	}
	encoder, err := qr.NewEncoder(qr.Options{Level: cfg.QR.Level, MaxVersion: cfg.QR.MaxVersion})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gen, err := generator.New(generator.Options{
		Catalog:        catalog,
		Encoder:        encoder,
		Renderer:       render.New(cfg.Fonts, logger),
		Exporter:       export.New(export.Options{PDFEnabled: cfg.PDFEnabled}),
		DefaultLayout:  render.Layout(cfg.Layout),
		QRBoxSize:      cfg.QR.BoxSize,
		QRBorder:       cfg.QR.Border,
		QRDisplaySize:  cfg.QR.DisplaySize,
		QRLinkTemplate: cfg.QR.LinkTemplate,
		Registry:       reg,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	app := config.NewApp(logger)
	handler := routes.NewHandler(routes.Options{
		Generator: gen,
		Sessions: session.NewManager(session.Options{
			TTL:       cfg.SessionTTL,
			MaxIssued: cfg.MaxArtifacts,
		}),
		Store: fibersession.New(fibersession.Config{
			Expiration:     cfg.SessionTTL,
			KeyLookup:      "cookie:badgeforge_session",
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
		Logger: logger,
	})
	routes.SetupRoutes(app, handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Addr()),
			zap.String("layout", cfg.Layout),
			zap.Bool("pdf", cfg.PDFEnabled))
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func catalogRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := config.LoadCatalog(cfg, logger)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, c := range catalog.Categories() {
		fmt.Fprintln(out, c.Name)
		for _, a := range c.Achievements {
			fmt.Fprintf(out, "  - %s\n", a)
		}
	}
	return nil
}

func catalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the achievement catalog the server would offer",
		Args:  cobra.NoArgs,
		RunE:  catalogRun,
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Certificate and badge generator",
		Args:          cobra.NoArgs,
		RunE:          serveRun,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file to load")

	rootCmd.AddCommand(catalogCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
