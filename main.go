package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oslo-surface",
	Short: "Faderfox control surface for a DAW speaking OSC",
	Long: `oslo-surface binds a Faderfox controller to the session of a DAW reached
over OSC: a window of channel strips that follows the selected track, return
and master levels, transport and a beat pulse on the play LED.

The controller may be plugged in and out while running.`,
	SilenceUsage: true,
	RunE:         runSurface,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default .oslo.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.Flags().Bool("tui", false, "show the monitor")
	rootCmd.Flags().String("palette", "", "GPL palette for the monitor")
	rootCmd.Flags().String("port", "", "MIDI port name to match (overrides midi.port)")

	rootCmd.AddCommand(portsCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
