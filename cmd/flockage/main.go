package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/flockage/internal/repository/registry"
)

func main() {
	root := buildRoot(os.Stdout, time.Now)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	File   string
	Locale string
}

// buildRoot assembles the command tree. out receives command output and now
// decides what "today" means for commands with an optional target date.
func buildRoot(out io.Writer, now func() time.Time) *cobra.Command {
	flags := &GlobalFlags{}
	app := command{flags: flags, out: out, now: now}

	root := createRootCommand(flags)
	root.SetOut(out)
	root.AddCommand(
		createAgeCommand(app),
		createDateCommand(app),
		createFlocksCommand(app),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "flockage",
		Short: "Poultry flock age calculator",
		Long: `Flockage computes a flock's age in weeks and days from its hatch date,
the calendar date a flock reaches a given age, and keeps a small registry
of named flocks.

Examples:
  flockage age 2024-01-01 2024-03-15
  flockage date 2024-01-01 15
  flockage flocks add "A house" 2024-01-01
  flockage flocks ages`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.File, "file", envOr("FLOCKS_FILE", registry.DefaultFile), "path to the flock registry file")
	root.PersistentFlags().StringVar(&flags.Locale, "locale", envOr("APP_LOCALE", "en"), "weekday label language (en, ko, fr)")

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
