package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/tubescript-ai/internal/app"
	"github.com/fpang/tubescript-ai/internal/imagegen"
	"github.com/fpang/tubescript-ai/internal/lambdaboot"
	"github.com/fpang/tubescript-ai/internal/server"
	"github.com/fpang/tubescript-ai/internal/store"
)

var (
	servePort    int
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the browser UI",
	Long: `Serve starts a local HTTP server exposing the workflow as a JSON API with a
WebSocket event stream per session. Sessions are saved under the data
directory and survive restarts.

When SESSION_TABLE_NAME or STORYBOARD_BUCKET are set, sessions are stored
in DynamoDB and scene images are archived to S3 using the default AWS
credentials.

Examples:
  tubescript serve
  tubescript serve --port 9090 --data-dir /tmp/tubescript`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default $PORT or 8080)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Directory for saved keys and sessions (default $TUBESCRIPT_DATA_DIR)")
}

func runServe(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveDataDir != "" {
		cfg.DataDir = serveDataDir
	}

	var (
		snapshots store.SnapshotStore
		wrap      func(imagegen.Backend) imagegen.Backend
	)
	if cfg.SessionTableName != "" || cfg.StoryboardBucket != "" {
		awsClients := lambdaboot.InitAWS()
		if cfg.SessionTableName != "" {
			snapshots = lambdaboot.InitDynamo(awsClients.Config, cfg.SessionTableName)
		}
		wrap = lambdaboot.ArchiveWrapper(lambdaboot.InitS3(awsClients.Config, cfg.StoryboardBucket))
	}
	if snapshots == nil {
		fs, err := store.NewFileStore(filepath.Join(cfg.DataDir, "sessions"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open session store")
		}
		snapshots = fs
	}

	services := app.New(cfg, app.Options{CredentialStore: app.LocalCredentialStore(cfg), WrapBackend: wrap})
	reg := server.NewRegistry(snapshots, services.NewMachine)
	srv := server.New(server.Options{
		Registry:    reg,
		Credentials: services.Credentials,
		KeyChecker:  services.Client,
	})

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     srv.Router(),
		ReadTimeout: 30 * time.Second,
		// Script generation can take minutes on large references.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	lambdaboot.StartupLog("tubescript-serve", initStart).
		Config("port", fmt.Sprint(cfg.Port)).
		Config("model", services.Client.Model()).
		Config("imageBackend", services.Images.Backend().Name()).
		Resource("dirs", "data", cfg.DataDir).
		Resource("dynamoTables", "sessions", cfg.SessionTableName).
		Resource("s3Buckets", "storyboards", cfg.StoryboardBucket).
		Feature("s3Archive", wrap != nil).
		Feature("metrics", cfg.MetricsEnabled).
		Log()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go reg.Sweep(sweepCtx, time.Minute, server.DefaultIdleTimeout)

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		stopSweep()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown incomplete")
		}
		if err := reg.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("Image fill still running at shutdown, remaining scenes are dropped")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Starting web server")
	fmt.Printf("\n  TubeScript API: http://localhost:%d/api/health\n\n", cfg.Port)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	<-shutdownDone
}
