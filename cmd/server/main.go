package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilMago8/smart-habit-tracker/internal/auth"
	"github.com/ilMago8/smart-habit-tracker/internal/config"
	"github.com/ilMago8/smart-habit-tracker/internal/db"
	api "github.com/ilMago8/smart-habit-tracker/internal/http"
	"github.com/ilMago8/smart-habit-tracker/internal/repo"
	"github.com/ilMago8/smart-habit-tracker/internal/service"
	"github.com/ilMago8/smart-habit-tracker/migrations"
)

func main() {
	root := &cobra.Command{
		Use:   "smart-habit-tracker",
		Short: "Habit tracking web application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations and start the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending schema migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context())
			},
		},
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrate(ctx context.Context) error {
	cfg := config.Load()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return db.RunMigrations(ctx, pool, migrations.FS)
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		return err
	}

	authManager := auth.NewManager(cfg.JWTSecret)
	repository := repo.New(pool)
	svc := service.New(repository, authManager)

	handler := &api.API{Service: svc, Auth: authManager, CORSOrigin: cfg.CORSOrigin}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	return nil
}
