// Command syncagent replays a device's pending highlight changes to the
// highlight service, typically after the device comes back online.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"highlight-sync/internal/config"
	"highlight-sync/internal/dispatch"
	"highlight-sync/internal/remote"
)

func main() {
	deviceFlag := flag.String("device", "", "device id whose outbox is flushed (defaults to DEVICE_ID)")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	deviceID := *deviceFlag
	if deviceID == "" {
		deviceID = cfg.Remote.DeviceID
	}
	if deviceID == "" {
		log.Fatal("A device id is required: pass -device or set DEVICE_ID")
	}
	if cfg.Outbox.Backend != "redis" {
		log.Fatal("Nothing to flush: OUTBOX_BACKEND must be redis for queued changes to outlive the reader")
	}

	outbox, err := dispatch.NewRedisOutbox(cfg.Outbox.RedisURL, cfg.Outbox.KeyPrefix, deviceID)
	if err != nil {
		log.Fatalf("Failed to open outbox: %v", err)
	}
	defer outbox.Close()

	client, err := remote.NewClient(remote.Config{
		BaseURL:      cfg.Remote.BaseURL,
		DeviceID:     deviceID,
		RetryMax:     cfg.Remote.RetryMax,
		RetryWaitMin: cfg.Remote.RetryWaitMin,
		RetryWaitMax: cfg.Remote.RetryWaitMax,
		Timeout:      cfg.Remote.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create remote client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pending, err := outbox.Len(ctx)
	if err != nil {
		log.Fatalf("Failed to read outbox: %v", err)
	}
	log.Printf("[SyncAgent] %d pending jobs in %s", pending, outbox.Key())

	queue := dispatch.NewQueue(outbox, client, dispatch.QueueConfig{
		RetryWaitMin: cfg.Outbox.RetryWaitMin,
		RetryWaitMax: cfg.Outbox.RetryWaitMax,
		ResultBuffer: pending + 1,
	})

	sent, flushErr := queue.Flush(ctx)

	for i := 0; i < sent; i++ {
		res := <-queue.Results()
		if res.Err != nil {
			log.Printf("[SyncAgent] dropped %s %v: %v", res.Kind, res.IDs, res.Err)
			continue
		}
		log.Printf("[SyncAgent] sent %s %v", res.Kind, res.IDs)
	}

	if flushErr != nil {
		log.Fatalf("Stopped after %d of %d jobs: %v", sent, pending, flushErr)
	}
	log.Printf("[SyncAgent] outbox drained, %d jobs sent", sent)
}
