package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmagro/seal-blob-bot/internal/blob"
	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/proxy"
	"github.com/dmagro/seal-blob-bot/internal/reports"
	"github.com/dmagro/seal-blob-bot/internal/source"
	"github.com/dmagro/seal-blob-bot/internal/sui"
	"github.com/dmagro/seal-blob-bot/internal/workflow"
)

var errImageMissing = errors.New("local image not found")

type runOptions struct {
	action     string
	image      string
	count      int
	addresses  string
	allWallets bool
	yes        bool
	jsonOut    bool
	reportDir  string

	addressesSet bool
}

func (a *app) runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create entries, upload a blob and publish it, for every wallet",
		Long: `Run the allowlist or subscription workflow for each wallet.

Anything not given as a flag is asked for interactively. With --yes the
defaults are used instead of prompting.

Examples:
  sealbot run
  sealbot run --action allowlist --count 2 --addresses 0xabc,0xdef
  sealbot run --action subscription --image image.jpg --all-wallets --yes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.addressesSet = cmd.Flags().Changed("addresses")
			return a.runRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.action, "action", "", "Workflow: allowlist|subscription (or 1|2)")
	cmd.Flags().StringVar(&opts.image, "image", "", "Image URL or local file path")
	cmd.Flags().IntVar(&opts.count, "count", 0, "Tasks per wallet (default 1)")
	cmd.Flags().StringVar(&opts.addresses, "addresses", "", "Comma-separated extra allowlist members")
	cmd.Flags().BoolVar(&opts.allWallets, "all-wallets", false, "Use the wallets file without asking")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Accept defaults instead of prompting")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Write a JSON run report to the reports directory")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", reports.DefaultDir, "Directory for --json reports")

	return cmd
}

func (a *app) runRun(ctx context.Context, opts runOptions) error {
	fmt.Fprintln(a.out, "\nSUI SEAL AUTO BOT")
	a.log.Divider()

	keys, err := a.resolveWallets(opts.allWallets, opts.yes)
	if err != nil {
		return err
	}

	job, err := a.resolveJob(opts)
	if errors.Is(err, workflow.ErrUnknownAction) {
		return nil
	}
	if err != nil {
		return err
	}

	rotator := proxy.Load(a.cfg.Files.Proxies, a.log)
	uploader, err := a.newUploader(rotator)
	if err != nil {
		return err
	}

	runner := &workflow.Runner{
		Open: func(key string) (*workflow.Bot, error) {
			kp, err := sui.ParseKey(key)
			if err != nil {
				a.log.Error("Error initializing keypair: %v", err)
				return nil, err
			}
			a.log.Info("Initialized wallet with address: %s", kp.Address())
			client := sui.NewClient(a.cfg.RPCURL, kp, a.cfg.RPCTimeout)
			return workflow.NewBot(client, uploader, a.settings(), a.log), nil
		},
		Log:      a.log,
		OnWallet: a.printSummary,
	}

	switch job.Action {
	case workflow.ActionAllowlist:
		a.log.Info("Starting allowlist workflow (%d tasks)", job.Count)
	case workflow.ActionSubscription:
		a.log.Info("Starting service registration workflow (%d tasks)", job.Count)
	}

	report := runner.Run(ctx, keys, job)
	report.RunID = a.runID

	a.log.Divider()
	if n := report.Failures(); n > 0 {
		a.log.Warning("Finished with %d of %d wallets failing", n, len(report.Wallets))
	} else if ctx.Err() != nil {
		a.log.Warning("Run interrupted")
	} else {
		a.log.Success("All tasks completed successfully!")
	}

	if opts.jsonOut {
		path, err := reports.WriteJSON(opts.reportDir, string(job.Action), report)
		if err != nil {
			return err
		}
		a.log.Info("Report written to %s", path)
	}
	return nil
}

// resolveJob fills in action, image source, task count and extra addresses
// from flags, prompting for whatever is missing.
func (a *app) resolveJob(opts runOptions) (workflow.Job, error) {
	var job workflow.Job

	choice := opts.action
	if choice == "" && !opts.yes {
		a.log.Divider()
		fmt.Fprintln(a.out, "Select action:")
		fmt.Fprintln(a.out, "1. Create allowlist and publish blob")
		fmt.Fprintln(a.out, "2. Create subscription service and publish blob")
		var err error
		if choice, err = a.ask("Choice (1/2): "); err != nil {
			return job, err
		}
	} else if choice == "" {
		choice = string(workflow.ActionAllowlist)
	}
	action, err := workflow.ParseAction(choice)
	if err != nil {
		a.log.Error("Invalid choice. Please enter 1 or 2.")
		return job, err
	}
	job.Action = action

	if job.Source, err = a.resolveImage(opts); err != nil {
		return job, err
	}

	job.Count = opts.count
	if job.Count == 0 && !opts.yes {
		ans, err := a.ask("Number of tasks per wallet (default 1): ")
		if err != nil {
			return job, err
		}
		job.Count = parseCount(ans)
		if ans != "" && job.Count == 0 {
			a.log.Warning("Invalid number. Using default value of 1.")
		}
	} else if job.Count < 0 {
		a.log.Warning("Invalid number. Using default value of 1.")
	}
	if job.Count < 1 {
		job.Count = 1
	}

	if job.Action == workflow.ActionAllowlist {
		raw := opts.addresses
		if !opts.addressesSet && !opts.yes {
			if raw, err = a.ask("Additional addresses for each allowlist (comma separated, Enter to skip): "); err != nil {
				return job, err
			}
		}
		job.Extra = source.SplitAddresses(raw)
		if len(job.Extra) > 0 {
			a.log.Info("Will add %d additional addresses to each allowlist", len(job.Extra))
		}
	}

	return job, nil
}

func (a *app) resolveImage(opts runOptions) (blob.Source, error) {
	if opts.image != "" {
		src := blob.ParseSource(opts.image)
		if src.Kind == blob.SourceFile && !source.Exists(src.Location) {
			a.log.Error("Error: %s not found.", src.Location)
			return src, fmt.Errorf("%w: %s", errImageMissing, src.Location)
		}
		a.log.Info("Using image %s", src)
		return src, nil
	}

	choice := "1"
	if !opts.yes {
		a.log.Divider()
		fmt.Fprintln(a.out, "Image source option:")
		fmt.Fprintf(a.out, "1. Use URL (default: %s)\n", a.cfg.DefaultImageURL)
		fmt.Fprintf(a.out, "2. Use local file (%s)\n", a.cfg.Files.Image)
		var err error
		if choice, err = a.ask("Choice (1/2): "); err != nil {
			return blob.Source{}, err
		}
	}

	if choice == "2" {
		path := a.cfg.Files.Image
		if !source.Exists(path) {
			a.log.Error("Error: %s not found.", path)
			return blob.Source{}, fmt.Errorf("%w: %s", errImageMissing, path)
		}
		a.log.Info("Using local %s", path)
		return blob.FileSource(path), nil
	}

	imageURL := ""
	if !opts.yes {
		var err error
		if imageURL, err = a.ask("Image URL (Enter for default): "); err != nil {
			return blob.Source{}, err
		}
	}
	if imageURL == "" {
		imageURL = a.cfg.DefaultImageURL
	}
	a.log.Info("Using image URL: %s", imageURL)
	return blob.URLSource(imageURL), nil
}

// parseCount returns 0 for anything that is not a positive integer.
func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func (a *app) printSummary(w workflow.WalletReport) {
	a.log.Divider()
	if w.Failed() && len(w.Allowlists)+len(w.Subscriptions) == 0 {
		return
	}
	a.log.Success("Summary for wallet %d:", w.Index)

	if len(w.Allowlists) > 0 {
		rows := make([][]string, len(w.Allowlists))
		for i, r := range w.Allowlists {
			rows[i] = []string{strconv.Itoa(i + 1), r.AllowlistID, r.EntryObjectID, r.BlobID}
		}
		output.RenderTable(a.out, "Allowlists", []string{"#", "Allowlist ID", "Entry ID", "Blob ID"}, rows)
	}
	if len(w.Subscriptions) > 0 {
		rows := make([][]string, len(w.Subscriptions))
		for i, r := range w.Subscriptions {
			rows[i] = []string{strconv.Itoa(i + 1), r.SharedObjectID, r.ServiceEntryID, r.BlobID}
		}
		output.RenderTable(a.out, "Services", []string{"#", "Shared ID", "Service Entry ID", "Blob ID"}, rows)
	}
}
