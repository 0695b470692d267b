package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"WhereToEat/src/config"
	"WhereToEat/src/db"
	"WhereToEat/src/draw"
	"WhereToEat/src/handlers"
	"WhereToEat/src/kakao"
	"WhereToEat/src/logging"
	"WhereToEat/src/sampler"
	"WhereToEat/src/token"
	"WhereToEat/src/types"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(start(os.Args[1:], os.Stderr))
}

// start runs the server and returns the process exit code once the logger has
// been flushed.
func start(args []string, stderr io.Writer) int {
	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}

	log, err := logging.NewWithWriter(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "logging:", err)
		return 2
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tmpl, err := handlers.LoadTemplates(cfg.TemplateDir)
	if err != nil {
		return err
	}

	h := &handlers.Handler{
		Templates: tmpl,
		Log:       log,
		Config: handlers.Config{
			SearchRadius: cfg.SearchRadius,
			PageSize:     cfg.PageSize,
			KakaoJSKey:   cfg.KakaoJSKey,
		},
	}

	var source types.PlaceSource

	if cfg.KakaoRESTKey != "" {
		client, err := kakao.NewClient(kakao.Config{
			BaseURL:   cfg.KakaoBaseURL,
			RESTKey:   cfg.KakaoRESTKey,
			RPS:       cfg.KakaoRPS,
			CacheSize: cfg.AddressCacheSize,
			Timeout:   cfg.KakaoTimeout,
		}, log.Named("kakao"))
		if err != nil {
			return err
		}
		h.Geocoder = client
		source = client
	}

	if cfg.Source == config.SourceElastic {
		store, err := openStore(ctx, cfg, log.Named("elastic"))
		if err != nil {
			return err
		}
		defer store.Stop()

		h.Store = store
		source = store

		if len(cfg.SigningKey) > 0 {
			users, err := token.ParseUsers(cfg.Users)
			if err != nil {
				return err
			}
			h.Auth, err = token.NewAuthenticator([]byte(cfg.SigningKey), users, log.Named("token"))
			if err != nil {
				return err
			}
		} else {
			log.Warn("signing key is not set, /api/recommend is disabled")
		}
	}

	h.Draw = draw.New(source, sampler.New(nil), draw.Config{
		SampleSize: cfg.SampleSize,
		Policy:     cfg.ExhaustedPolicy,
	}, log.Named("draw"))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("source", cfg.Source),
			zap.Stringer("exhausted_policy", cfg.ExhaustedPolicy))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (*db.ElasticStore, error) {
	store, err := db.NewElasticStore(db.Config{
		URL:         cfg.ElasticURL,
		Index:       cfg.Index,
		Healthcheck: true,
	}, log)
	if err != nil {
		return nil, err
	}

	if err := store.CreateIndexWithMapping(ctx, cfg.SchemaPath); err != nil {
		store.Stop()
		return nil, err
	}

	if cfg.DataPath != "" {
		n, err := store.LoadData(ctx, cfg.DataPath)
		if err != nil {
			store.Stop()
			return nil, err
		}
		log.Info("loaded places", zap.Int("count", n), zap.String("path", cfg.DataPath))
	}
	return store, nil
}
