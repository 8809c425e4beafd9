package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/appointment-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/appointment-scheduler/internal/config"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	hook, err := bootstrap.BuildFulfillment(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Error("failed to build fulfillment hook", "error", err)
		panic(err)
	}
	defer hook.Close()

	lambda.Start(hook.Dispatcher.HandleEvent)
}
