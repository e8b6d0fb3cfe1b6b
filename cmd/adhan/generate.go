package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/config"
	"github.com/jmylchreest/adhan/internal/prayer"
)

var generateOpts struct {
	output string
	force  bool
}

var generateCmd = &cobra.Command{
	Use:   "generate <method>",
	Short: "Write a configuration file for a calculation method",
	Long: `Write a configuration file with the parameters of a calculation method.
The coordinates are left at zero; edit the [location] section before running.

Methods: ` + methodList(),
	Args:      cobra.ExactArgs(1),
	ValidArgs: methodNames(),
	RunE:      runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOpts.output, "output", "o", "",
		"Output path, .toml or .yaml (default: ~/.config/adhan/config.toml)")
	generateCmd.Flags().BoolVarP(&generateOpts.force, "force", "f", false,
		"Overwrite an existing file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	method, err := prayer.ParseMethod(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w (methods: %s)", config.ErrConfiguration, err, methodList())
	}

	path := generateOpts.output
	if path == "" {
		path = globalOpts.configPath
	}
	if path == "" {
		path = config.ConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !generateOpts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.Generate(method).Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s configuration to %s\n", method, path)
	fmt.Fprintln(cmd.OutOrStdout(), "Set latitude and longitude in the [location] section before running.")
	return nil
}

func methodNames() []string {
	var names []string
	for _, m := range prayer.Methods() {
		names = append(names, string(m))
	}
	return names
}

func methodList() string {
	return strings.Join(methodNames(), ", ")
}
