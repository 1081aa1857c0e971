package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/cli"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/logger"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewWithOutput("quiz-cli", cfg.LogLevel, os.Stderr)
	quizApp, err := app.New(ctx, cfg, log, "cli", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	var result *multierror.Error
	if err := cli.Run(ctx, os.Stdin, os.Stdout, cli.Deps{
		Sessions: quizApp.Sessions,
		Accounts: quizApp.Accounts,
		History:  quizApp.History,
	}); err != nil {
		result = multierror.Append(result, err)
	}
	if err := quizApp.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
