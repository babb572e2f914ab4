// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/gomugic/internal/app"
	"github.com/relabs-tech/gomugic/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gomugic",
	Short: "MUGIC IMU sensor pipeline",
	Long: "gomugic ingests MUGIC IMU datagrams over OSC/UDP or serial, " +
		"calibrates and smooths them, and serves the derived motion state " +
		"over MQTT, HTTP or the terminal.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		if configPath != "" {
			return config.InitGlobal(configPath)
		}
		config.InitGlobalDefault()
		return nil
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Live terminal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunConsole()
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Publish datagrams and motion state over MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunMonitor()
	},
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve state over HTTP and websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunWeb()
	},
}

var recordDuration time.Duration

var recordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Capture raw sensor traffic to a recording file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunRecord(args[0], recordDuration)
	},
}

var (
	replayHost string
	replayPort int
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a recording to an OSC receiver",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunReplay(args[0], replayHost, replayPort)
	},
	Args: cobra.ExactArgs(1),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 30*time.Second, "capture duration")
	replayCmd.Flags().StringVar(&replayHost, "host", "localhost", "OSC receiver host")
	replayCmd.Flags().IntVar(&replayPort, "port", 4000, "OSC receiver port")

	rootCmd.AddCommand(consoleCmd, monitorCmd, webCmd, recordCmd, replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
