package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/config"
	"github.com/jmylchreest/adhan/internal/prayer"
)

var testOpts struct {
	fajr bool
}

var testCmd = &cobra.Command{
	Use:   "test [device]",
	Short: "Play a cue once to check audio output",
	Long: `Play one cue from the normal/ directory, or from fajr/ with --fajr,
on the given or configured output device and wait for it to finish.

A configuration file is optional for this command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().BoolVarP(&testOpts.fajr, "fajr", "f", false,
		"Play a Fajr cue instead of a normal one")
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	} else if err != nil {
		return err
	}

	kind := prayer.KindIsha
	if testOpts.fajr {
		kind = prayer.KindFajr
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := newPlayer(cfg)
	defer p.backend.Close()

	if err := p.trigger.Fire(ctx, kind, deviceArg(cfg, args)); err != nil {
		return err
	}

	category, _ := prayer.CategoryFor(kind)
	fmt.Fprintf(cmd.OutOrStdout(), "Played a %s cue\n", category)
	return nil
}
