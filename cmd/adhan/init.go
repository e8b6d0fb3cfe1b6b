package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and cue directories",
	Long: `Create ~/.config/adhan together with the audio/fajr and audio/normal cue
directories, and print what to put where.

This also happens automatically the first time adhan runs with the default
configuration location.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	created, err := config.EnsureDirs("")
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration directory already exists: %s\n", config.ConfigDir())
	}
	printFirstUse(cmd.OutOrStdout())
	return nil
}

func printFirstUse(w io.Writer) {
	audio := config.AudioPath()
	fmt.Fprintf(w, `Created the adhan configuration directory at %s.

1. Write a configuration file for your calculation method, then set your
   latitude and longitude in it:

     adhan generate muslim_world_league

2. Put at least one audio file (wav, ogg or mp3) in each cue directory:

     %s   played for Fajr
     %s   played for the other prayers

3. Check that a cue plays with 'adhan test' and start monitoring with 'adhan run'.
`, config.ConfigDir(), filepath.Join(audio, "fajr"), filepath.Join(audio, "normal"))
}
