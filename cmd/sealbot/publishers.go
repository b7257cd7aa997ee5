package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/publisher"
	"github.com/dmagro/seal-blob-bot/internal/stats"
)

func (a *app) publishersCmd() *cobra.Command {
	var (
		timeout time.Duration
		samples int
	)

	cmd := &cobra.Command{
		Use:   "publishers",
		Short: "Probe every configured publisher endpoint concurrently",
		Long: `Send one GET to every publisher and report status and latency.

Any HTTP answer below 500 counts as reachable; publishers reject GET on the
blobs path but still prove the endpoint is up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPublishers(cmd.Context(), timeout, samples)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.Flags().IntVar(&samples, "samples", 1, "Probe rounds per publisher; more than one adds latency percentiles")
	return cmd
}

func (a *app) runPublishers(ctx context.Context, timeout time.Duration, samples int) error {
	eps := a.endpoints()
	samples = max(samples, 1)
	a.log.Network("Probing %d publishers (%d rounds)...", len(eps), samples)

	client := &http.Client{Timeout: timeout}
	last := make([]publisher.ProbeResult, len(eps))
	latencies := make([][]time.Duration, len(eps))
	for round := 0; round < samples && ctx.Err() == nil; round++ {
		for i, r := range publisher.Probe(ctx, client, eps) {
			last[i] = r
			if r.Reachable() {
				latencies[i] = append(latencies[i], r.Latency)
			}
		}
	}

	headers := []string{"Name", "URL", "Status", "Latency"}
	if samples > 1 {
		headers = []string{"Name", "URL", "Status", "Success", "P50", "P95", "Max"}
	}

	rows := make([][]string, len(eps))
	up := 0
	for i, r := range last {
		summary := stats.Summarize(latencies[i], samples)
		ok := summary.OK > 0
		if ok {
			up++
		}

		status := fmt.Sprintf("HTTP %d", r.StatusCode)
		if r.Err != nil {
			status = r.Err.Error()
		}
		row := []string{eps[i].Name, eps[i].URL, output.StatusText(ok, status)}
		if samples > 1 {
			row = append(row,
				fmt.Sprintf("%.0f%%", summary.SuccessRate()*100),
				summary.P50.Round(time.Millisecond).String(),
				summary.P95.Round(time.Millisecond).String(),
				summary.Max.Round(time.Millisecond).String(),
			)
		} else {
			row = append(row, r.Latency.Round(time.Millisecond).String())
		}
		rows[i] = row
	}
	output.RenderTable(a.out, "Publishers", headers, rows)

	if up == 0 {
		a.log.Error("No publisher is reachable")
	} else {
		a.log.Success("%d of %d publishers reachable", up, len(eps))
	}
	return nil
}
