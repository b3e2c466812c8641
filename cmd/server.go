package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flowstudio/config"
	"flowstudio/config/database"
	chatRepository "flowstudio/internal/chat/repository"
	chatService "flowstudio/internal/chat/service"
	docRepository "flowstudio/internal/document/repository"
	docService "flowstudio/internal/document/service"
	"flowstudio/internal/llm"
	workflowRepository "flowstudio/internal/workflow/repository"
	workflowService "flowstudio/internal/workflow/service"
	"flowstudio/pkg/logger"
	"flowstudio/router"
	"flowstudio/store/memory"
)

var flagLogLevel string

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server [options]",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfPath)
			if err != nil {
				return err
			}
			if flagLogLevel != "" {
				cfg.LogLevel = flagLogLevel
			}

			logger.Init(cfg.LogLevel)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	return cmd
}

// repositories are the three stores behind the services, backed by Postgres or memdb.
type repositories struct {
	documents docService.Repository
	workflows workflowService.Repository
	chats     chatService.Repository
	close     func() error
}

func openRepositories(ctx context.Context, cfg config.Database) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		db, err := memory.New()
		if err != nil {
			return nil, err
		}
		logger.Sugar.Warn("Using the in-memory store; data is lost on restart")
		return &repositories{
			documents: db.Documents(),
			workflows: db.Workflows(),
			chats:     db.ChatLogs(),
			close:     db.Close,
		}, nil
	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgresRepositories(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

func postgresRepositories(db *sql.DB) *repositories {
	return &repositories{
		documents: docRepository.NewDocumentRepository(db),
		workflows: workflowRepository.NewWorkflowRepository(db),
		chats:     chatRepository.NewChatRepository(db),
		close:     db.Close,
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Sugar.Errorf("Failed to close store: %v", err)
		}
	}()

	generator, err := llm.NewGeneratorFromConfig(cfg.LLM)
	if err != nil {
		return err
	}

	docs := docService.NewDocumentService(repos.documents)
	handler := router.Setup(cfg, router.Services{
		Documents: docs,
		Workflows: workflowService.NewWorkflowService(repos.workflows, docs, generator),
		Chats:     chatService.NewChatService(repos.chats),
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("Backend listening on %s (store=%s, llm=%s/%s)",
			cfg.Server.Addr, cfg.Database.Driver, cfg.LLM.Provider, cfg.LLM.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
