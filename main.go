package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gin-gonic/gin"
	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/session"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "portfolio site with a falling-glyph background",
	RunE:  serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the web server",
	RunE:  serve,
}

var rainCmd = &cobra.Command{
	Use:   "rain",
	Short: "draw the rain in this terminal",
	RunE:  rainInTerminal,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [file]",
	Short: "render the rain to a PNG",
	Args:  cobra.MaximumNArgs(1),
	RunE:  snapshot,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")

	snapshotCmd.Flags().Int("width", 800, "image width in pixels")
	snapshotCmd.Flags().Int("height", 600, "image height in pixels")
	snapshotCmd.Flags().Int("ticks", 60, "frames to run before saving")
	snapshotCmd.Flags().Uint64("seed", 1, "random seed, 0 for a random one")

	rootCmd.AddCommand(serveCmd, rainCmd, snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gin.Mode() == gin.DebugMode {
		gg.SetLogger(slog.Default())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := session.NewRegistry(cfg, pageGroups(cfg)...)
	go sessions.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(&server{ctx: ctx, cfg: cfg, sessions: sessions}),
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sessions.CloseAll()
	return nil
}

func rainInTerminal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runTerminal(ctx, screen, cfg.Rain, cfg.Seed)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := "rain.png"
	if len(args) == 1 {
		path = args[0]
	}

	var opts snapshotOptions
	flags := cmd.Flags()
	if opts.Width, err = flags.GetInt("width"); err != nil {
		return err
	}
	if opts.Height, err = flags.GetInt("height"); err != nil {
		return err
	}
	if opts.Ticks, err = flags.GetInt("ticks"); err != nil {
		return err
	}
	if opts.Seed, err = flags.GetUint64("seed"); err != nil {
		return err
	}

	canvas, err := renderSnapshot(cfg.Rain, opts)
	if err != nil {
		return err
	}
	defer canvas.Close()

	if err := canvas.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Printf("Wrote %s (%dx%d, %d ticks)", path, opts.Width, opts.Height, opts.Ticks)
	return nil
}
