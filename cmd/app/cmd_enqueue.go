package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"Horacle/internal/di"
	"Horacle/internal/usecase"
	"Horacle/pkg/config"
	pkgkafka "Horacle/pkg/kafka"
	"Horacle/pkg/logger"
)

// enqueueCmd hands a prediction request to a running service through Kafka or
// the Redis queue.
var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Submit a prediction request to the request transport",
	Long: `Submit a prediction request for asynchronous processing. The request
uses the same file and flags as predict. A request id is generated when
none is given; it is printed and used for dedupe.

Examples:
  horacle enqueue --request request.json
  horacle enqueue --request request.json --transport queue`,
	RunE: runEnqueue,
}

var (
	enqueueFlags     requestFlags
	enqueueTransport string
)

func init() {
	rootCmd.AddCommand(enqueueCmd)

	enqueueFlags.register(enqueueCmd)
	enqueueCmd.Flags().StringVar(&enqueueTransport, "transport", "kafka", "request transport (kafka|queue)")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	req, err := enqueueFlags.build(cmd, cfg.Prediction.DefaultMinProbability)
	if err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch enqueueTransport {
	case "kafka":
		cfg.Kafka.Enabled = true
		producer, cleanup, err := di.ProvideKafkaProducer(cfg, logger.Nop())
		if err != nil {
			return err
		}
		defer cleanup()
		msg := pkgkafka.Message{
			Key:     []byte(req.RequestID),
			Value:   req,
			Headers: map[string]string{pkgkafka.TraceHeader: req.RequestID},
		}
		if err := producer.PublishBatch(ctx, cfg.Kafka.RequestsTopic, []pkgkafka.Message{msg}); err != nil {
			return fmt.Errorf("publish request: %w", err)
		}
	case "queue":
		cfg.Queue.Enabled = true
		client, cleanup, err := di.ProvideRedisClient(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		// No jobs are registered, so Start only pings and no workers run.
		q := di.ProvideRedisQueue(cfg, client, logger.Nop())
		if err := q.Start(); err != nil {
			return fmt.Errorf("queue: %w", err)
		}
		defer q.Stop(ctx)
		if _, err := q.Enqueue(ctx, usecase.RequestJobType, req); err != nil {
			return fmt.Errorf("enqueue request: %w", err)
		}
	default:
		return fmt.Errorf("unknown transport %q", enqueueTransport)
	}

	fmt.Println(req.RequestID)
	return nil
}
