package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/focusondelaine/website/internal/config"
	"github.com/focusondelaine/website/internal/logging"
	"github.com/focusondelaine/website/internal/server"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	root *rootFlags

	configPath string
	port       int
	host       string
	watch      bool
}

func newServeCmd(root *rootFlags) *cobra.Command {
	flags := serveFlags{root: root}

	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Start the website server",
		Long: `Start the website server for a directory. The directory may hold a
delaine.yaml configuration; without one the built-in defaults are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: flags.run,
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to the configuration file (default: <directory>/delaine.yaml)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Port to listen on (overrides config)")
	cmd.Flags().StringVar(&flags.host, "host", "", "Host to listen on (overrides config)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Reload config and content when they change")

	return cmd
}

// loadConfig reads the configuration for dir, preferring an explicit path.
func loadConfig(dir, configPath string) (*config.Config, string, error) {
	if configPath == "" {
		configPath = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, configPath, nil
}

func resolveDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absDir, nil
}

func (f *serveFlags) run(cmd *cobra.Command, args []string) error {
	dir, err := resolveDir(args)
	if err != nil {
		return err
	}

	cfg, configPath, err := loadConfig(dir, f.configPath)
	if err != nil {
		return err
	}

	// CLI flags override config
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = f.host
	}
	if cmd.Flags().Changed("watch") {
		cfg.Features.HotReload = f.watch
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := f.logger(cmd, cfg)

	srv, err := server.New(dir, cfg, logger)
	if err != nil {
		return err
	}
	srv.SetConfigPath(configPath)

	if cfg.Features.HotReload {
		if err := srv.EnableWatch(); err != nil {
			return fmt.Errorf("failed to enable watch mode: %w", err)
		}
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("failed to listen: %w", err)
	}

	printBanner(cmd.OutOrStdout(), dir, configPath, ln.Addr().String(), cfg)
	return serve(cmd.Context(), srv, ln, logger)
}

// logger honors --log-level/--debug/--log-file and otherwise the config's
// log section.
func (f *serveFlags) logger(cmd *cobra.Command, cfg *config.Config) *zap.Logger {
	flags := cmd.Flags()
	if f.root.debug || flags.Changed("log-level") || flags.Changed("log-file") {
		return f.root.logger
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		f.root.logger.Warn("falling back to console logging", zap.Error(err))
		return f.root.logger
	}
	f.root.logger = logger
	return logger
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *server.Server, ln net.Listener, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	handler, limiterDone := srv.Handler(gctx)
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		if cerr := srv.Close(); cerr != nil {
			logger.Warn("failed to stop watcher", zap.Error(cerr))
		}
		<-limiterDone
		return err
	})

	return g.Wait()
}

func printBanner(w io.Writer, dir, configPath, addr string, cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Faint)
	url := color.New(color.FgGreen, color.Underline)

	title.Fprintf(w, "%s\n\n", cfg.Title)
	label.Fprint(w, "Serving:  ")
	fmt.Fprintln(w, dir)
	label.Fprint(w, "Config:   ")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(w, configPath)
	} else {
		fmt.Fprintln(w, "built-in defaults")
	}
	label.Fprint(w, "Booking:  ")
	fmt.Fprintln(w, cfg.Booking.GetURL())
	label.Fprint(w, "Contact:  ")
	fmt.Fprintln(w, cfg.Contact.GetRecipient())
	if cfg.Features.HotReload {
		color.New(color.FgYellow).Fprintln(w, "Watch mode enabled: edits to delaine.yaml and site.yaml reload the site")
	}
	fmt.Fprint(w, "\nServer running at ")
	url.Fprintf(w, "http://%s\n", addr)
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}
