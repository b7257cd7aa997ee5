// Package workflow drives the on-chain side of the bot: it creates allowlist
// or subscription entries, uploads a blob, and links the blob id back into
// the entry. Every step is one signed Move call, executed strictly in order.
package workflow

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/dmagro/seal-blob-bot/internal/blob"
	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/sui"
)

const (
	DefaultPackageID    = "0x4cb081457b1e098d566a277f605ba48410e26e66eaab5b3be4f6c560e9501800"
	DefaultEpochs       = 1
	DefaultServicePrice = 10
	DefaultServiceTTL   = 60_000_000

	moduleAllowlist    = "allowlist"
	moduleSubscription = "subscription"
)

// Uploader turns a blob source into a publisher blob id.
type Uploader interface {
	Upload(ctx context.Context, src blob.Source, epochs int) (string, error)
}

// Settings are the chain-side parameters of a run.
type Settings struct {
	PackageID    string
	GasBudget    uint64
	Epochs       int
	ServicePrice uint64 // subscription fee, in MIST
	ServiceTTL   uint64 // subscription duration, in ms
}

func (s Settings) withDefaults() Settings {
	if s.PackageID == "" {
		s.PackageID = DefaultPackageID
	}
	if s.GasBudget == 0 {
		s.GasBudget = sui.DefaultGasBudget
	}
	if s.Epochs == 0 {
		s.Epochs = DefaultEpochs
	}
	if s.ServicePrice == 0 {
		s.ServicePrice = DefaultServicePrice
	}
	if s.ServiceTTL == 0 {
		s.ServiceTTL = DefaultServiceTTL
	}
	return s
}

// AllowlistResult is one completed allowlist task.
type AllowlistResult struct {
	AllowlistID   string `json:"allowlist_id"`
	EntryObjectID string `json:"entry_object_id"`
	BlobID        string `json:"blob_id"`
}

// SubscriptionResult is one completed subscription task.
type SubscriptionResult struct {
	SharedObjectID string `json:"shared_object_id"`
	ServiceEntryID string `json:"service_entry_id"`
	BlobID         string `json:"blob_id"`
}

// Bot runs workflows for a single wallet.
type Bot struct {
	chain    sui.Submitter
	uploader Uploader
	cfg      Settings
	log      *output.Logger
	namer    func() string
}

type Option func(*Bot)

// WithNamer replaces the random entry-name generator.
func WithNamer(fn func() string) Option {
	return func(b *Bot) { b.namer = fn }
}

func NewBot(chain sui.Submitter, uploader Uploader, cfg Settings, log *output.Logger, opts ...Option) *Bot {
	b := &Bot{
		chain:    chain,
		uploader: uploader,
		cfg:      cfg.withDefaults(),
		log:      log,
		namer:    RandomName,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) Address() string { return b.chain.Address() }

func (b *Bot) Settings() Settings { return b.cfg }

func (b *Bot) call(module, function string, args ...any) sui.Call {
	return sui.Call{
		Package:   b.cfg.PackageID,
		Module:    module,
		Function:  function,
		Args:      args,
		GasBudget: b.cfg.GasBudget,
	}
}

// CreateAllowlist creates a named allowlist and returns its shared id and
// the caller-owned entry (cap) id. An empty name gets a random one.
func (b *Bot) CreateAllowlist(ctx context.Context, name string) (allowlistID, entryID string, err error) {
	if name == "" {
		name = b.namer()
	}
	b.log.Processing("Creating allowlist with name: %s", name)

	effects, err := b.chain.Submit(ctx, b.call(moduleAllowlist, "create_allowlist_entry", name))
	if err == nil {
		entryID, allowlistID, err = sui.PartitionCreated(effects.Created, b.Address())
	}
	if err != nil {
		b.log.Error("Error creating allowlist: %v", err)
		return "", "", fmt.Errorf("create allowlist: %w", err)
	}

	b.log.Success("Successfully created allowlist")
	b.log.Result("Allowlist ID", allowlistID)
	b.log.Result("Entry ID", entryID)
	return allowlistID, entryID, nil
}

// AddToAllowlist grants address access to the allowlist.
func (b *Bot) AddToAllowlist(ctx context.Context, allowlistID, entryID, address string) error {
	b.log.Processing("Adding %s to allowlist", address)

	if _, err := b.chain.Submit(ctx, b.call(moduleAllowlist, "add", allowlistID, entryID, address)); err != nil {
		b.log.Error("Error adding to allowlist: %v", err)
		return fmt.Errorf("add %s to allowlist: %w", address, err)
	}
	b.log.Success("Successfully added address to allowlist")
	return nil
}

// PublishToAllowlist attaches blobID to the allowlist.
func (b *Bot) PublishToAllowlist(ctx context.Context, allowlistID, entryID, blobID string) error {
	b.log.Processing("Publishing blob to allowlist")

	if _, err := b.chain.Submit(ctx, b.call(moduleAllowlist, "publish", allowlistID, entryID, blobID)); err != nil {
		b.log.Error("Error publishing to allowlist: %v", err)
		return fmt.Errorf("publish to allowlist: %w", err)
	}
	b.log.Success("Successfully published content to allowlist")
	return nil
}

// CreateServiceEntry creates a subscription service with the configured
// price and TTL and returns its shared id and the caller-owned entry id.
func (b *Bot) CreateServiceEntry(ctx context.Context, name string) (sharedID, entryID string, err error) {
	if name == "" {
		name = b.namer()
	}
	price, ttl := b.cfg.ServicePrice, b.cfg.ServiceTTL
	b.log.Processing("Adding service entry: %s (Amount: %d, Duration: %d)", name, price, ttl)

	call := b.call(moduleSubscription, "create_service_entry",
		strconv.FormatUint(price, 10),
		strconv.FormatUint(ttl, 10),
		name,
	)
	effects, err := b.chain.Submit(ctx, call)
	if err == nil {
		entryID, sharedID, err = sui.PartitionCreated(effects.Created, b.Address())
	}
	if err != nil {
		b.log.Error("Error adding service entry: %v", err)
		return "", "", fmt.Errorf("create service entry: %w", err)
	}

	b.log.Success("Successfully created service entry")
	b.log.Result("Shared ID", sharedID)
	b.log.Result("Entry ID", entryID)
	return sharedID, entryID, nil
}

// PublishToSubscription attaches blobID to the subscription service.
func (b *Bot) PublishToSubscription(ctx context.Context, sharedID, entryID, blobID string) error {
	b.log.Processing("Publishing blob to subscription service")

	if _, err := b.chain.Submit(ctx, b.call(moduleSubscription, "publish", sharedID, entryID, blobID)); err != nil {
		b.log.Error("Error publishing to subscription service: %v", err)
		return fmt.Errorf("publish to subscription: %w", err)
	}
	b.log.Success("Successfully published content to subscription service")
	return nil
}

var (
	nameAdjectives = []string{"cool", "awesome", "top", "excellent", "perfect"}
	nameNouns      = []string{"project", "creation", "work", "masterpiece", "innovation"}
)

// RandomName returns an entry name like "cool-work-417".
func RandomName() string {
	return fmt.Sprintf("%s-%s-%d",
		nameAdjectives[rand.Intn(len(nameAdjectives))],
		nameNouns[rand.Intn(len(nameNouns))],
		rand.Intn(1000),
	)
}
