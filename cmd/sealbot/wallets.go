package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/source"
	"github.com/dmagro/seal-blob-bot/internal/sui"
)

var errNoWallet = errors.New("no wallet configured")

// resolveWallets picks the keys for a run: the wallets file when it has
// entries and the operator agrees, otherwise the single key in the pk file.
func (a *app) resolveWallets(useAll, yes bool) ([]string, error) {
	walletsPath, pkPath := a.cfg.Files.Wallets, a.cfg.Files.PK

	keys, err := source.ReadLines(walletsPath)
	switch {
	case err == nil && len(keys) > 0:
		a.log.Success("Loaded %d wallets from %s", len(keys), walletsPath)
		use := useAll || yes
		if !use {
			if use, err = a.confirm(fmt.Sprintf("Use multiple wallets from %s? (y/n): ", walletsPath)); err != nil {
				return nil, err
			}
		}
		if use {
			a.log.Info("Using %d wallets from %s", len(keys), walletsPath)
			return keys, nil
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		a.log.Error("Error loading wallets: %v", err)
	}

	pk, err := source.ReadLines(pkPath)
	if err != nil || len(pk) == 0 {
		a.log.Error("Wallet not found. Please create %s with your key or mnemonic, or %s for multiple wallets.", pkPath, walletsPath)
		return nil, errNoWallet
	}
	a.log.Info("Using a single wallet from %s", pkPath)
	return pk[:1], nil
}

func (a *app) walletsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallets",
		Short: "List the addresses derived from the wallet files",
		Long: `Derive and print the Sui address of every key in the wallets and pk
files. Keys themselves are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWallets()
		},
	}
}

func (a *app) runWallets() error {
	var rows [][]string
	for _, path := range []string{a.cfg.Files.Wallets, a.cfg.Files.PK} {
		keys, err := source.ReadLines(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		for i, key := range keys {
			row := []string{path, strconv.Itoa(i + 1)}
			kp, err := sui.ParseKey(key)
			if err != nil {
				row = append(row, "-", output.StatusText(false, err.Error()))
			} else {
				row = append(row, kp.Address(), output.StatusText(true, "OK"))
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		a.log.Warning("No keys found in %s or %s", a.cfg.Files.Wallets, a.cfg.Files.PK)
		return errNoWallet
	}
	output.RenderTable(a.out, "Wallets", []string{"File", "Line", "Address", "Status"}, rows)
	return nil
}
