package workflow

import (
	"context"
	"fmt"

	"github.com/dmagro/seal-blob-bot/internal/blob"
)

// RunAllowlist performs count allowlist tasks. Each task creates an
// allowlist, adds the wallet's own address and then every extra address,
// uploads src and publishes the blob id. The first failure stops the run;
// the results of tasks completed before it are returned with the error.
func (b *Bot) RunAllowlist(ctx context.Context, src blob.Source, extra []string, count int) ([]AllowlistResult, error) {
	if count < 1 {
		count = 1
	}
	b.log.Info("Starting allowlist workflow for %d allowlists", count)

	results := make([]AllowlistResult, 0, count)
	for i := 1; i <= count; i++ {
		b.log.Divider()
		b.log.Info("Processing allowlist %d of %d", i, count)

		res, err := b.allowlistTask(ctx, src, extra)
		if err != nil {
			b.log.Error("Allowlist workflow failed: %v", err)
			return results, fmt.Errorf("allowlist %d of %d: %w", i, count, err)
		}
		results = append(results, res)
	}

	b.log.Divider()
	b.log.Success("Allowlist workflow completed successfully")
	return results, nil
}

func (b *Bot) allowlistTask(ctx context.Context, src blob.Source, extra []string) (AllowlistResult, error) {
	allowlistID, entryID, err := b.CreateAllowlist(ctx, "")
	if err != nil {
		return AllowlistResult{}, err
	}

	members := append([]string{b.Address()}, extra...)
	for _, addr := range members {
		if err := b.AddToAllowlist(ctx, allowlistID, entryID, addr); err != nil {
			return AllowlistResult{}, err
		}
	}

	blobID, err := b.uploader.Upload(ctx, src, b.cfg.Epochs)
	if err != nil {
		return AllowlistResult{}, fmt.Errorf("upload blob: %w", err)
	}
	if err := b.PublishToAllowlist(ctx, allowlistID, entryID, blobID); err != nil {
		return AllowlistResult{}, err
	}

	return AllowlistResult{AllowlistID: allowlistID, EntryObjectID: entryID, BlobID: blobID}, nil
}

// RunSubscription performs count subscription tasks: create a service
// entry, upload src, publish the blob id. Failure handling matches
// RunAllowlist.
func (b *Bot) RunSubscription(ctx context.Context, src blob.Source, count int) ([]SubscriptionResult, error) {
	if count < 1 {
		count = 1
	}
	b.log.Info("Starting service registration workflow for %d services", count)

	results := make([]SubscriptionResult, 0, count)
	for i := 1; i <= count; i++ {
		b.log.Divider()
		b.log.Info("Processing service %d of %d", i, count)

		res, err := b.subscriptionTask(ctx, src)
		if err != nil {
			b.log.Error("Service registration process failed: %v", err)
			return results, fmt.Errorf("service %d of %d: %w", i, count, err)
		}
		results = append(results, res)
	}

	b.log.Divider()
	b.log.Success("Service registration process completed successfully")
	return results, nil
}

func (b *Bot) subscriptionTask(ctx context.Context, src blob.Source) (SubscriptionResult, error) {
	sharedID, entryID, err := b.CreateServiceEntry(ctx, "")
	if err != nil {
		return SubscriptionResult{}, err
	}

	blobID, err := b.uploader.Upload(ctx, src, b.cfg.Epochs)
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("upload blob: %w", err)
	}
	if err := b.PublishToSubscription(ctx, sharedID, entryID, blobID); err != nil {
		return SubscriptionResult{}, err
	}

	return SubscriptionResult{SharedObjectID: sharedID, ServiceEntryID: entryID, BlobID: blobID}, nil
}
