package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/civicops/internal/auth"
	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/database"
	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/logic"
	"github.com/blues/civicops/internal/repository"
	"github.com/blues/civicops/internal/router"
	"github.com/blues/civicops/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "civicops",
		Short:         "Project schedule and approval service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configFile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configFile)
		},
	})
	return root
}

func loadConfig(configFile string) (*config.Config, error) {
	cfg := config.Load(configFile)
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// openRepositories 根据存储配置创建仓储，返回的 cleanup 负责释放连接
func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, pool, err := database.Init(ctx, cfg.Database, cfg.Server.Mode == gin.DebugMode)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using PostgreSQL storage at %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		return repository.NewGormRepositories(db), pool.Close, nil
	case "sqlite":
		db, err := database.OpenSQLite(cfg.Database.SQLitePath, cfg.Server.Mode == gin.DebugMode)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using SQLite storage at %s", cfg.Database.SQLitePath)
		return repository.NewGormRepositories(db), func() { database.Close(db) }, nil
	case "memory", "":
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepositories(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func serve(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	repos, cleanup, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	services := logic.NewServices(repos)
	if cfg.Storage.SeedDemo {
		if _, err := services.Approvals.SeedDemoApprovals(ctx); err != nil {
			return fmt.Errorf("failed to seed approvals: %w", err)
		}
	}

	// 设置Gin模式
	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := auth.NewSessionStore(cfg.Auth)
	r := router.Setup(cfg, services, sessions)

	// 启动定时任务
	jobs, err := scheduler.Start(services, cfg)
	if err != nil {
		return err
	}
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 打开数据库时会执行自动迁移
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := database.OpenSQLite(cfg.Database.SQLitePath, true)
		if err != nil {
			return err
		}
		database.Close(db)
	case "postgres":
		_, pool, err := database.Init(ctx, cfg.Database, true)
		if err != nil {
			return err
		}
		pool.Close()
	default:
		return fmt.Errorf("storage driver %q has no schema to migrate", cfg.Storage.Driver)
	}
	logger.Info("Database schema is up to date")
	return nil
}
