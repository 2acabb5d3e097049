package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/repository/registry"
	"github.com/mamadbah2/flockage/internal/service/flocks"
)

// command carries the shared state of one CLI invocation.
type command struct {
	flags *GlobalFlags
	out   io.Writer
	now   func() time.Time
}

// service opens the registry named by --file and wraps it in a flocks service.
func (c command) service(cmd *cobra.Command) *flocks.Service {
	logger := cliLogger(cmd.ErrOrStderr())
	reg := registry.New(c.flags.File, logger.Named("registry"))
	reg.Load()
	return flocks.NewService(reg, agecalc.NewWeekdayFormatter(c.flags.Locale), time.Local, logger).WithClock(c.now)
}

// cliLogger only surfaces warnings so command output stays readable.
func cliLogger(w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.WarnLevel)
	return zap.New(core)
}

func createAgeCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "age <hatch YYYY-MM-DD> [target YYYY-MM-DD]",
		Short: "Show a flock's age on a date (default today)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := c.service(cmd)
			target := svc.Today().Format(agecalc.DateLayout)
			if len(args) == 2 {
				target = args[1]
			}

			age, err := svc.ComputeAgeByDate(args[0], target)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "Age on %s: %s (%d days)\n", target, age, age.TotalDays)
			return err
		},
	}
}

func createDateCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "date <hatch YYYY-MM-DD> <weeks> [days]",
		Short: "Show the date a flock reaches an age",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, days, err := parseAge(args[1:])
			if err != nil {
				return err
			}

			svc := c.service(cmd)
			res, err := svc.ComputeDateByAge(args[0], weeks, days)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "%dw %dd is reached on %s (day %d)\n", weeks, days, svc.FormatDate(res.TargetDate), res.TotalDays)
			return err
		},
	}
}

func createFlocksCommand(c command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flocks",
		Short: "Manage the flock registry",
	}
	cmd.AddCommand(
		createFlocksListCommand(c),
		createFlocksAddCommand(c),
		createFlocksRemoveCommand(c),
		createFlocksAgesCommand(c),
		createFlocksDatesCommand(c),
	)
	return cmd
}

func createFlocksListCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered flocks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := c.service(cmd).ListFlocks()
			if len(records) == 0 {
				_, err := fmt.Fprintln(c.out, "No flocks registered.")
				return err
			}

			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tHATCH DATE")
			for _, r := range records {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.HatchDate.Format(agecalc.DateLayout))
			}
			return tw.Flush()
		},
	}
}

func createFlocksAddCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <hatch YYYY-MM-DD>",
		Short: "Register or update a flock",
		Long: `Register a flock, or overwrite the hatch date of an existing one.
Names may contain spaces; the last argument is the hatch date.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[:len(args)-1], " ")
			hatch := args[len(args)-1]

			persisted, err := c.service(cmd).AddOrUpdateFlock(name, hatch)
			if err != nil {
				return err
			}
			if !persisted {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not write %s\n", c.flags.File)
			}
			_, err = fmt.Fprintf(c.out, "Saved %s (hatched %s)\n", strings.TrimSpace(name), hatch)
			return err
		},
	}
}

func createFlocksRemoveCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"delete", "remove"},
		Short:   "Remove a flock",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			removed, persisted := c.service(cmd).DeleteFlock(name)
			if !removed {
				_, err := fmt.Fprintf(c.out, "No flock named %s\n", name)
				return err
			}
			if !persisted {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not write %s\n", c.flags.File)
			}
			_, err := fmt.Fprintf(c.out, "Removed %s\n", name)
			return err
		},
	}
}

func createFlocksAgesCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "ages [target YYYY-MM-DD]",
		Short: "Age every registered flock on a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}

			rows, err := c.service(cmd).BatchComputeAges(target)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				_, err := fmt.Fprintln(c.out, "No flocks registered.")
				return err
			}

			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "NAME\tHATCH DATE\tAGE ON %s\tDAYS\n", rows[0].Target)
			for _, r := range rows {
				if r.Error != "" {
					_, _ = fmt.Fprintf(tw, "%s\t%s\tnot hatched yet\t-\n", r.Name, r.HatchDate)
					continue
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%dw %dd\t%d\n", r.Name, r.HatchDate, r.Weeks, r.ExtraDays, r.TotalDays)
			}
			return tw.Flush()
		},
	}
}

func createFlocksDatesCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "dates <weeks> [days]",
		Short: "Show when every registered flock reaches an age",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weeks, days, err := parseAge(args)
			if err != nil {
				return err
			}

			rows, err := c.service(cmd).BatchComputeDates(weeks, days)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				_, err := fmt.Fprintln(c.out, "No flocks registered.")
				return err
			}

			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "NAME\tHATCH DATE\tREACHES %dw %dd ON\tDAYS\n", weeks, days)
			for _, r := range rows {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%d\n", r.Name, r.HatchDate, r.TargetDate, r.Weekday, r.TotalDays)
			}
			return tw.Flush()
		},
	}
}

// parseAge reads "<weeks> [days]"; days defaults to 0.
func parseAge(args []string) (weeks, days int, err error) {
	if weeks, err = agecalc.ParseAgeComponent(args[0]); err != nil {
		return 0, 0, fmt.Errorf("weeks: %w", err)
	}
	if len(args) > 1 {
		if days, err = agecalc.ParseAgeComponent(args[1]); err != nil {
			return 0, 0, fmt.Errorf("days: %w", err)
		}
	}
	return weeks, days, nil
}
