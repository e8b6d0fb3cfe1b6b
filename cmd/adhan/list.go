package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/audio"
)

// listCmd represents the list command group.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List output devices or audio hosts",
}

var listDevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List output devices usable as [device]",
	Args:  cobra.NoArgs,
	RunE:  runListDevices,
}

var listHostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List the audio hosts that can enumerate devices",
	Args:  cobra.NoArgs,
	RunE:  runListHosts,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listDevicesCmd)
	listCmd.AddCommand(listHostsCmd)
}

func runListDevices(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	devices, err := audio.NewSystemDevices(nil, nil, logger).Devices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No output devices found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHOST\tDEFAULT\tDESCRIPTION")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Host, def, d.Description)
	}
	return w.Flush()
}

func runListHosts(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hosts := audio.NewSystemDevices(nil, nil, logger).Hosts(ctx)
	if len(hosts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audio hosts available")
		return nil
	}
	for _, h := range hosts {
		fmt.Fprintln(cmd.OutOrStdout(), h)
	}
	return nil
}
