package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/httpapi"
	"trivia-quiz/internal/logger"
)

const serviceName = "quiz-service"

func main() {
	envFile := config.LoadEnvFiles()

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log := logger.New(serviceName, cfg.LogLevel)
	if envFile != "" {
		log.WithField("file", envFile).Debug("loaded env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quizApp, err := app.New(ctx, cfg, log, "service", prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to build app")
	}

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Sessions:       quizApp.Sessions,
			Categories:     quizApp.Provider,
			History:        quizApp.History,
			Accounts:       quizApp.Accounts,
			Logger:         log.WithField("component", "http"),
			Metrics:        quizApp.Metrics,
			MetricsHandler: promhttp.Handler(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("quiz-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var result *multierror.Error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, "server failed"))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to shut down server"))
	}
	if err := quizApp.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		log.WithError(err).Error("quiz-service stopped with errors")
		os.Exit(1)
	}
}
