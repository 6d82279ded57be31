package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/queue"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/workerproc"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	logger, err := telemetry.Init(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer telemetry.Sync()

	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		logger.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap build", zap.Error(err))
	}
	defer app.Close()

	client := app.Queue.API()
	queueURL := app.Queue.QueueURL()
	concurrency := cfg.RebuildConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	logger.Info("worker.started",
		zap.String("queue", queueURL),
		zap.Int("concurrency", concurrency),
		zap.Int32("visibility_seconds", cfg.WorkerVisibility),
	)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: cfg.WorkerMaxMessages,
			WaitTimeSeconds:     cfg.WorkerWaitSeconds,
			VisibilityTimeout:   cfg.WorkerVisibility,
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			logger.Error("worker.receive_failed", zap.Error(err))
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.ObserveWorkerJob("received")
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, client, queueURL, app.ProcessingService, m)
			}(msg)
		}
	}

	logger.Info("worker.shutdown", zap.Duration("timeout", defaultShutdownTimeout))
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(defaultShutdownTimeout):
		logger.Warn("worker.shutdown_timeout")
	}
}

// handleMessage runs one rebuild job. Unparseable messages are deleted since
// redelivery cannot fix them; a batch that fails to run stays on the queue.
func handleMessage(ctx context.Context, client queue.SQSAPI, queueURL string, proc workerproc.Rebuilder, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", "")
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		var missing workerproc.ErrMissingOwnerID
		if errors.As(err, &missing) && missing.RequestID != "" {
			fields["request_id"] = missing.RequestID
		}
		telemetry.Error("worker.rebuild.invalid_message", fields)
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.ObserveWorkerJob("dropped")
		}
		return
	}

	telemetry.Info("worker.rebuild.received", baseFields(msg, decoded.OwnerID, decoded.RequestID))

	batch, err := workerproc.HandleMessage(ctx, proc, decoded)
	if err != nil {
		fields := baseFields(msg, decoded.OwnerID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.rebuild.failed", fields)
		metrics.ObserveWorkerJob("failed")
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.OwnerID, decoded.RequestID) {
		fields := baseFields(msg, decoded.OwnerID, decoded.RequestID)
		fields["succeeded"] = batch.Succeeded
		fields["failed"] = batch.Failed
		telemetry.Info("worker.rebuild.completed", fields)
		metrics.ObserveWorkerJob("completed")
	}
}

func deleteMessage(ctx context.Context, client queue.SQSAPI, queueURL string, msg sqstypes.Message, ownerID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, ownerID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.rebuild.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, ownerID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.rebuild.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, ownerID, requestID string) map[string]any {
	fields := map[string]any{
		"owner_id":       ownerID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
