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

	"github.com/mwarzecha/velofit/backend/internal/config"
	"github.com/mwarzecha/velofit/backend/internal/handler"
	intakehandler "github.com/mwarzecha/velofit/backend/internal/handler/intake"
	"github.com/mwarzecha/velofit/backend/internal/service/ai"
	chatservice "github.com/mwarzecha/velofit/backend/internal/service/chat"
	"github.com/mwarzecha/velofit/backend/internal/service/extract"
	"github.com/mwarzecha/velofit/backend/internal/service/history"
	"github.com/mwarzecha/velofit/backend/internal/service/speech"
	"github.com/mwarzecha/velofit/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	messageStore, err := store.NewSQLite(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("failed to open message store: %v", err)
	}
	defer messageStore.Close()

	historySvc, err := history.NewService(messageStore, cfg.History.CacheSize)
	if err != nil {
		log.Fatalf("failed to initialize history service: %v", err)
	}

	// Model-backed services are optional: without credentials the API still
	// acknowledges user turns, it just never replies.
	var (
		responder  chatservice.Responder
		extractSvc *extract.Service
	)
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to create chat model: %v", err)
		} else {
			aiSvc, err := ai.NewService(ctx, chatModel, ai.DefaultCapabilities(), cfg.AI)
			if err != nil {
				log.Printf("warning: failed to initialize interview agent: %v", err)
			} else {
				responder = aiSvc
				log.Println("interview agent initialized")
			}

			extractSvc, err = extract.NewService(ctx, chatModel, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
			if err != nil {
				log.Printf("warning: failed to initialize extraction pipeline: %v", err)
				extractSvc = nil
			} else {
				log.Println("extraction pipeline initialized")
			}
		}
	} else {
		log.Println("model credentials not configured, skipping agent and extraction setup")
	}

	var (
		transcriber chatservice.Transcriber
		synthesizer chatservice.Synthesizer
	)
	if cfg.Speech.Enabled {
		speechSvc := speech.NewService(cfg.Speech)
		transcriber = speechSvc
		synthesizer = speechSvc
		log.Println("speech service initialized")
	} else {
		log.Println("speech credentials not configured, audio turns disabled")
	}

	turns := chatservice.NewService(messageStore, historySvc, responder, transcriber, synthesizer, "/audio")

	var extractor intakehandler.Extractor
	if extractSvc != nil {
		extractor = extractSvc
	}

	router := handler.NewRouter(turns, extractor, messageStore, cfg.Speech.AudioDir)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("velofit intake backend listening on %s", serverCfg.Addr)
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
