package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/ogulcanaydogan/budget-alert-relay/internal/cli"
	"github.com/ogulcanaydogan/budget-alert-relay/internal/config"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/alerts"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

func main() {
	cfg, err := config.Load(os.Getenv("RELAY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := cli.NewLogger(cfg)
	dispatcher := cli.NewDispatcher(cfg, logger)

	lambda.Start(handler(dispatcher, cfg))
}

// handler reads WEBHOOK_URL and MESSAGE_PREFIX on every invocation so that
// updated function environment is picked up by warm containers.
func handler(d *alerts.Dispatcher, cfg *config.Config) func(context.Context, model.Event) error {
	return func(ctx context.Context, ev model.Event) error {
		settings := cfg.Settings()
		if url, ok := os.LookupEnv("WEBHOOK_URL"); ok {
			settings.WebhookURL = url
		}
		if prefix, ok := os.LookupEnv("MESSAGE_PREFIX"); ok {
			settings.MessagePrefix = prefix
		}
		return d.Handle(ctx, &ev, settings)
	}
}
