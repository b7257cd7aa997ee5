package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/proxy"
)

func (a *app) proxiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxies",
		Short: "List the proxies parsed from the proxies file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProxies()
		},
	}
}

func (a *app) runProxies() error {
	rotator := proxy.Load(a.cfg.Files.Proxies, a.log)
	descs := rotator.Descriptors()
	if len(descs) == 0 {
		return nil
	}

	rows := make([][]string, len(descs))
	for i, d := range descs {
		auth := "-"
		if d.HasAuth() {
			auth = output.Mask(d.Auth.Username) + ":" + output.Mask(d.Auth.Password)
		}
		rows[i] = []string{strconv.Itoa(i + 1), d.Host, d.Port, auth}
	}
	output.RenderTable(a.out, "Proxies", []string{"#", "Host", "Port", "Auth"}, rows)
	return nil
}
