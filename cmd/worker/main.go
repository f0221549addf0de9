// The worker binary runs the whole pipeline in one long-lived process for
// deployments without a managed function runtime: it long-polls the
// ingestion, mailer and dead-letter queues and serves a small admin HTTP
// surface for health checks and record lookups.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/imageflow/imagemeta/pkg/imagemeta/bus/sqs"
	"github.com/imageflow/imagemeta/pkg/imagemeta/config"
	"github.com/imageflow/imagemeta/pkg/imagemeta/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.ProcessQueueURL == "" {
		log.Fatal("PROCESS_QUEUE_URL is required for the worker")
	}

	svc, err := cfg.BuildService()
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	sqsClient := awssqs.NewFromConfig(awsCfg)

	logger := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumers := []*sqs.Consumer{
		sqs.NewConsumer(sqsClient, cfg.ProcessQueueURL, svc.HandleStoreEvent,
			sqs.WithDeadLetterQueue(cfg.DeadLetterQueueURL),
			sqs.WithMaxReceive(cfg.MaxReceiveCount),
			sqs.WithLogger(logger.With("consumer", "processimage")),
		),
	}
	if cfg.MailerQueueURL != "" {
		consumers = append(consumers,
			sqs.NewConsumer(sqsClient, cfg.MailerQueueURL, svc.HandleMailEvent,
				sqs.WithLogger(logger.With("consumer", "mailer")),
			))
	}
	if cfg.DeadLetterQueueURL != "" && cfg.EmailFrom != "" {
		consumers = append(consumers,
			sqs.NewConsumer(sqsClient, cfg.DeadLetterQueueURL,
				handler.Rejection(svc, cfg.ValidExtensions, logger),
				sqs.WithLogger(logger.With("consumer", "rejectionmailer")),
			))
	}

	for _, c := range consumers {
		go func(c *sqs.Consumer) {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("consumer stopped", "error", err)
			}
		}(c)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: newAdminServer(svc).Routes(),
	}

	go func() {
		logger.Info("worker admin server starting", "port", cfg.Port, "consumers", len(consumers))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Admin server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
		os.Exit(1)
	}
}
