package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmagro/seal-blob-bot/internal/blob"
	"github.com/dmagro/seal-blob-bot/internal/output"
)

// Action selects which workflow a run performs.
type Action string

const (
	ActionAllowlist    Action = "allowlist"
	ActionSubscription Action = "subscription"
)

var ErrUnknownAction = errors.New("unknown action")

// ParseAction accepts the action name or its menu number.
func ParseAction(s string) (Action, error) {
	switch s {
	case "1", string(ActionAllowlist):
		return ActionAllowlist, nil
	case "2", string(ActionSubscription):
		return ActionSubscription, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Job is what every wallet in a run does.
type Job struct {
	Action Action
	Source blob.Source
	Extra  []string // extra allowlist members
	Count  int
}

// WalletReport is the outcome for one wallet. Results hold whatever
// completed before a failure.
type WalletReport struct {
	Index         int                  `json:"index"`
	Address       string               `json:"address,omitempty"`
	Allowlists    []AllowlistResult    `json:"allowlists,omitempty"`
	Subscriptions []SubscriptionResult `json:"subscriptions,omitempty"`
	Error         string               `json:"error,omitempty"`

	Err error `json:"-"`
}

func (w WalletReport) Failed() bool { return w.Err != nil }

// Report is the outcome of a whole run.
type Report struct {
	RunID     string         `json:"run_id,omitempty"`
	Action    Action         `json:"action"`
	StartedAt time.Time      `json:"started_at"`
	Duration  string         `json:"duration"`
	Wallets   []WalletReport `json:"wallets"`
}

// Failures counts wallets that ended with an error.
func (r *Report) Failures() int {
	n := 0
	for _, w := range r.Wallets {
		if w.Failed() {
			n++
		}
	}
	return n
}

// Opener builds a Bot for one wallet key.
type Opener func(key string) (*Bot, error)

// Runner executes a Job for each wallet in turn.
type Runner struct {
	Open Opener
	Log  *output.Logger

	// OnWallet, when set, is called after each wallet finishes.
	OnWallet func(WalletReport)
}

// Run processes keys sequentially. A wallet that fails is recorded and the
// run moves on to the next one; only context cancellation stops it early.
func (r *Runner) Run(ctx context.Context, keys []string, job Job) *Report {
	start := time.Now()
	report := &Report{Action: job.Action, StartedAt: start}

	for i, key := range keys {
		if ctx.Err() != nil {
			r.Log.Warning("Run cancelled, skipping %d remaining wallets", len(keys)-i)
			break
		}

		r.Log.Divider()
		r.Log.Wallet("Processing wallet %d of %d", i+1, len(keys))

		wr := r.runWallet(ctx, i+1, key, job)
		if wr.Err != nil {
			wr.Error = wr.Err.Error()
			r.Log.Error("Wallet %d failed: %v", i+1, wr.Err)
		}
		report.Wallets = append(report.Wallets, wr)
		if r.OnWallet != nil {
			r.OnWallet(wr)
		}
	}

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	return report
}

func (r *Runner) runWallet(ctx context.Context, index int, key string, job Job) WalletReport {
	wr := WalletReport{Index: index}

	bot, err := r.Open(key)
	if err != nil {
		wr.Err = fmt.Errorf("open wallet: %w", err)
		return wr
	}
	wr.Address = bot.Address()
	r.Log.Wallet("Wallet address: %s", wr.Address)

	switch job.Action {
	case ActionAllowlist:
		wr.Allowlists, wr.Err = bot.RunAllowlist(ctx, job.Source, job.Extra, job.Count)
	case ActionSubscription:
		wr.Subscriptions, wr.Err = bot.RunSubscription(ctx, job.Source, job.Count)
	default:
		wr.Err = fmt.Errorf("%w: %q", ErrUnknownAction, job.Action)
	}
	return wr
}
