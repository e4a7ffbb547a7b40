package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/codefyre/backend/internal/auth"
	"github.com/codefyre/backend/internal/config"
	"github.com/codefyre/backend/internal/handler"
	"github.com/codefyre/backend/internal/model/identity"
	"github.com/codefyre/backend/internal/repository"
	chatservice "github.com/codefyre/backend/internal/service/chat"
	contactservice "github.com/codefyre/backend/internal/service/contact"
	inboxservice "github.com/codefyre/backend/internal/service/inbox"
	projectservice "github.com/codefyre/backend/internal/service/project"
	"github.com/codefyre/backend/internal/store"
	"github.com/codefyre/backend/internal/store/natskv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Realtime store: NATS JetStream KV when configured, in-process otherwise.
	var st store.Store
	if cfg.Store.Enabled() {
		nc, err := nats.Connect(cfg.Store.NATSURL, nats.Name("codefyre-backend"))
		if err != nil {
			log.Fatalf("failed to connect to NATS at %s: %v", cfg.Store.NATSURL, err)
		}
		defer nc.Drain()

		st, err = natskv.New(ctx, nc, cfg.Store.Bucket)
		if err != nil {
			log.Fatalf("failed to open KV bucket %s: %v", cfg.Store.Bucket, err)
		}
		log.Printf("realtime store backed by NATS KV bucket %s", cfg.Store.Bucket)
	} else {
		st = store.NewMemory()
		log.Println("NATS_URL not configured, using in-process store (state is not durable)")
	}

	directory := chatservice.NewDirectory(st)
	ledger := chatservice.NewLedger(st, cfg.Chat.Window)
	contactSvc := contactservice.NewService(st)

	// Relational backend is optional; without it the inbox and dashboard
	// routes stay unmounted and admin falls back to the email allow-list.
	var (
		inboxSvc   *inboxservice.Service
		projectSvc *projectservice.Service
		roles      auth.RoleChecker
	)
	if cfg.Database.Enabled() {
		db, err := repository.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := repository.Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}

		inboxSvc = inboxservice.NewService(repository.NewMessageRepository(db))
		projectSvc = projectservice.NewService(repository.NewProjectRepository(db))

		roleRepo := repository.NewRoleRepository(db)
		roles = auth.RoleCheckerFunc(func(ctx context.Context, id identity.Identity) (bool, error) {
			return roleRepo.IsAdmin(ctx, id.UID)
		})
		log.Println("relational backend initialized")
	} else {
		roles = auth.NewEmailRoles(cfg.Auth.AdminEmails)
		log.Println("DATABASE_DSN not configured, inbox and dashboard disabled; admin via ADMIN_EMAILS")
	}

	tokens, err := cfg.Auth.LoadTokens()
	if err != nil {
		log.Fatalf("failed to load auth tokens: %v", err)
	}
	if len(tokens) == 0 {
		log.Println("warning: no auth tokens configured, all API requests will be rejected")
	}

	router := handler.NewRouter(handler.Deps{
		Verifier:  auth.NewStaticVerifier(tokens),
		Roles:     roles,
		Directory: directory,
		Ledger:    ledger,
		Contact:   contactSvc,
		Inbox:     inboxSvc,
		Projects:  projectSvc,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("CodeFyre backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
