// cmd/pulsed/main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamzrod/session-pulse/internal/config"
	"github.com/tamzrod/session-pulse/internal/scheduler"
	"github.com/tamzrod/session-pulse/internal/source"
)

func main() {
	root := &cobra.Command{
		Use:          "pulsed",
		Short:        "Live editing-session metrics streamer",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics stream until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "pulse.yaml", "path to config file")
	return cmd
}

func serve(cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	// --------------------
	// Collaborators
	// --------------------

	var diags source.DiagnosticsSource = source.NoDiagnostics{}
	if cfg.Pulse.Diagnostics.Path != "" {
		fd, err := source.NewFileDiagnostics(cfg.Pulse.Diagnostics.Path)
		if err != nil {
			log.Fatalf("diagnostics source failed: %v", err)
		}
		diags = fd
	}

	var registrar source.Registrar = source.NullRegistrar{}
	if len(cfg.Pulse.Watch.Paths) > 0 {
		fw, err := source.NewFSWatcher(cfg.Pulse.Watch.Paths)
		if err != nil {
			log.Fatalf("event watcher failed: %v", err)
		}
		defer fw.Close()
		registrar = fw
	}

	// --------------------
	// Build + run
	// --------------------

	sched, err := scheduler.Build(cfg, diags, registrar)
	if err != nil {
		log.Fatalf("scheduler build failed: %v", err)
	}

	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}

	// Graceful stop on process exit.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	sched.Stop()
	return nil
}
