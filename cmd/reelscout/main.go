// Package main provides the reelscout CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/reelscout/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// resolveVersion prefers a version injected with -ldflags and falls back to
// the module version recorded by go install.
func resolveVersion(ldflagsVersion string, bi *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if bi == nil || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return "dev"
	}
	return bi.Main.Version
}

// newRootCmd creates the root command for reelscout CLI.
func newRootCmd() *cobra.Command {
	bi, _ := debug.ReadBuildInfo()
	a := &app{version: resolveVersion(version, bi)}

	rootCmd := &cobra.Command{
		Use:   "reelscout",
		Short: "Discover high-engagement reels on Instagram and TikTok",
		Long: "Reelscout finds short-form videos by hashtag or username through third-party\n" +
			"content APIs, keeps the recent ones that pass your engagement floors, and\n" +
			"prints or exports them.",
		Version:      a.version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.SetVersionTemplate("reelscout version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./.reelscout.yaml or "+config.Dir()+"/.reelscout.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newScrapeCmd(a))
	rootCmd.AddCommand(newBatchCmd(a))
	rootCmd.AddCommand(newProfileCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show resolved configuration",
		Long:  "Show where reelscout reads its configuration and which providers are ready.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", config.Dir())

			file := a.cfg.File
			if file == "" {
				file = "(none, using defaults and environment)"
			}
			fmt.Fprintf(out, "Config file: %s\n", file)
			fmt.Fprintf(out, "Default provider: %s\n", a.cfg.Defaults.Provider)
			fmt.Fprintf(out, "Configured providers: %v\n", a.registry.Names())
			fmt.Fprintf(out, "Cache: %s (ttl %s)\n", a.cfg.Cache.Backend, a.cfg.Cache.TTL)
			return nil
		},
	}

	return cmd
}
