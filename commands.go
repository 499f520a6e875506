package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"oslo-surface/config"
	"oslo-surface/midi"
)

// loadConfig reads the config file, environment and flags of cmd
func loadConfig(cmd *cobra.Command) (*viper.Viper, config.Config, error) {
	v := viper.New()
	cfgFile, _ := cmd.Flags().GetString("config")
	if err := config.Init(v, cfgFile); err != nil {
		return nil, config.Config{}, err
	}
	if f := cmd.Flags().Lookup("port"); f != nil {
		if err := v.BindPFlag("midi.port", f); err != nil {
			return nil, config.Config{}, err
		}
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		v.Set("log.level", "debug")
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, config.Config{}, err
	}
	return v, cfg, nil
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports and mark the one the surface would open",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ch := make(chan []midi.PortInfo, 1)
		go func() { ch <- midi.ListPorts() }()

		var ports []midi.PortInfo
		select {
		case ports = <-ch:
		case <-time.After(3 * time.Second):
			return errors.New("timed out listing MIDI ports")
		}

		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintln(out, "no MIDI ports")
			return nil
		}
		for _, p := range ports {
			mark := " "
			if p.Input && midi.Matches(p.Name, cfg.MIDI.Port) {
				mark = "*"
			}
			dir := ""
			if p.Input {
				dir += "in "
			}
			if p.Output {
				dir += "out"
			}
			fmt.Fprintf(out, "%s %-40s %s\n", mark, p.Name, dir)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, config.FileName+".yaml")
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s exists, use --force to overwrite", path)
		}
		if err := config.WriteDefaults(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
