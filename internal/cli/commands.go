package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/datebook/internal/calendar"
	"github.com/pfrederiksen/datebook/internal/config"
	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
	"github.com/pfrederiksen/datebook/internal/notifier"
)

func newUpcomingCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show events from today through the reminder horizon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			horizon := e.cfg.HorizonDays
			if cmd.Flags().Changed("days") {
				horizon = days
			}

			result := newResult("upcoming", e.today, e.store.Upcoming(e.today, horizon))
			result.HorizonDays = &horizon
			return WriteOutput(e.out, result, e.format, e.cfg.Color)
		},
	}
	cmd.Flags().IntVar(&days, "days", event.DefaultHorizonDays, "Days after today to include")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		sortFlag    string
		hideExpired bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all events, marking those that have passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}

			entries := e.store.AllEvents(e.today)
			if hideExpired {
				kept := entries[:0]
				for _, en := range entries {
					if !en.Expired {
						kept = append(kept, en)
					}
				}
				entries = kept
			}
			sortEntries(entries, order)
			return WriteOutput(e.out, newResult("all", e.today, entries), e.format, e.cfg.Color)
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", string(SortByDate), "Sort order: date or name")
	cmd.Flags().BoolVar(&hideExpired, "hide-expired", false, "Omit events dated before today")
	return cmd
}

func newAddCmd() *cobra.Command {
	var dateFlag, detail string
	cmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "Add an event",
		Example: `  datebook add Dentist --date 2024-06-03 --detail "10:30, bring forms"
  datebook add Call mum --date tomorrow`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			date, err := event.ParseDateRelative(dateFlag, e.today)
			if err != nil {
				return err
			}

			rec, err := e.store.Add(date, strings.Join(args, " "), detail)
			if err != nil {
				return userError(err)
			}
			added := event.Entry{Date: date, Position: len(e.store.Buckets()[date]) - 1, Record: rec}
			return writeChange(e, "Added", added)
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "today", "Event date (YYYY-MM-DD, today, tomorrow, +N)")
	cmd.Flags().StringVar(&detail, "detail", "", "Free-text detail")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show DATE POSITION",
		Short: "Show one event with its detail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			date, pos, err := parseRef(args, e.today)
			if err != nil {
				return err
			}

			rec, err := e.store.Get(date, pos)
			if err != nil {
				return userError(err)
			}
			en := event.Entry{Date: date, Position: pos, Record: rec, Expired: date.Before(e.today)}
			return writeRecord(e.out, toOutputEntry(e.today, en), e.format, e.cfg.Color)
		},
	}
}

func newEditCmd() *cobra.Command {
	var name, detail, dateFlag string
	cmd := &cobra.Command{
		Use:   "edit DATE POSITION",
		Short: "Change an event's name, detail or date",
		Long: `Change an event's name, detail or date. Fields not given keep their
current value. The edited event is placed at the end of its date's list,
even when the date does not change.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			date, pos, err := parseRef(args, e.today)
			if err != nil {
				return err
			}

			cur, err := e.store.Get(date, pos)
			if err != nil {
				return userError(err)
			}
			newName, newDetail, newDate := cur.Name, cur.Detail, date
			if cmd.Flags().Changed("name") {
				newName = name
			}
			if cmd.Flags().Changed("detail") {
				newDetail = detail
			}
			if cmd.Flags().Changed("date") {
				if newDate, err = event.ParseDateRelative(dateFlag, e.today); err != nil {
					return err
				}
			}

			rec, err := e.store.EditAndMove(date, pos, newName, newDetail, newDate)
			if err != nil {
				return userError(err)
			}
			edited := event.Entry{Date: newDate, Position: len(e.store.Buckets()[newDate]) - 1, Record: rec}
			return writeChange(e, "Updated", edited)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&detail, "detail", "", "New detail")
	cmd.Flags().StringVar(&dateFlag, "date", "", "New date")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete DATE POSITION",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			date, pos, err := parseRef(args, e.today)
			if err != nil {
				return err
			}

			rec, err := e.store.Get(date, pos)
			if err != nil {
				return userError(err)
			}
			if e.cfg.ConfirmDelete && !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
					fmt.Sprintf("Delete %q on %s?", rec.Name, date))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(e.out, "Cancelled.")
					return nil
				}
			}

			if err := e.store.DeleteAt(date, pos); err != nil {
				return userError(err)
			}
			return writeChange(e, "Deleted", event.Entry{Date: date, Position: pos, Record: rec})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Fuzzy-find events by name, best match first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			result := newResult("search", e.today, event.Search(e.store.AllEvents(e.today), query))
			result.Query = query
			return WriteOutput(e.out, result, e.format, e.cfg.Color)
		},
	}
}

func newExportCmd() *cobra.Command {
	var output string
	var upcoming bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as an iCalendar (.ics) file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			entries := e.store.AllEvents(e.today)
			if upcoming {
				entries = e.store.Upcoming(e.today, e.cfg.HorizonDays)
			}

			if output == "" || output == "-" {
				return calendar.Export(e.out, entries, "datebook")
			}
			f, err := os.Create(config.ExpandPath(output))
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			if err := calendar.Export(f, entries, "datebook"); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing export file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d events to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only export the reminder window")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import events from an iCalendar (.ics) file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(config.ExpandPath(args[0]))
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			res, err := calendar.Import(r)
			if err != nil {
				return err
			}
			n, err := e.store.Import(res.Entries)
			if err != nil {
				return err
			}

			if e.format == FormatJSON {
				return writeJSON(e.out, map[string]int{"imported": n, "skipped": res.Skipped})
			}
			fmt.Fprintf(e.out, "Imported %d events (%d skipped)\n", n, res.Skipped)
			return nil
		},
	}
}

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Print a reminder digest; exits 5 when there is something to remind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			entries := e.store.Upcoming(e.today, e.cfg.HorizonDays)

			if e.format == FormatJSON {
				horizon := e.cfg.HorizonDays
				result := newResult("upcoming", e.today, entries)
				result.HorizonDays = &horizon
				if err := writeJSON(e.out, result); err != nil {
					return err
				}
			} else {
				var n notifier.Notifier = notifier.NewConsoleNotifier(e.out, 0)
				if err := n.Notify(e.today, entries); err != nil {
					return err
				}
			}

			if len(entries) > 0 {
				return exitStatus(ExitReminders)
			}
			return nil
		},
	}
}

// StatsResult is printed by the stats command.
type StatsResult struct {
	Today    event.Date      `json:"today"`
	Records  int             `json:"records"`
	Dates    int             `json:"dates"`
	Expired  int             `json:"expired"`
	Upcoming int             `json:"upcoming"`
	Metrics  logger.Snapshot `json:"metrics"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show event counts and the metrics of this run",
		Long: `Show event counts from the data file. Metrics (store.*, storage.*) are
kept in memory by the running process only, so this command reports the
load and queries it performed itself; mutations made by earlier
invocations are reflected in the counts, not in the metrics.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}

			stats := StatsResult{
				Today:    e.today,
				Records:  e.store.Len(),
				Dates:    len(e.store.Dates()),
				Upcoming: len(e.store.Upcoming(e.today, e.cfg.HorizonDays)),
				Metrics:  logger.GetMetricsSnapshot(),
			}
			for _, en := range e.store.AllEvents(e.today) {
				if en.Expired {
					stats.Expired++
				}
			}

			if e.format == FormatJSON {
				return writeJSON(e.out, stats)
			}
			fmt.Fprintf(e.out, "Records:  %d\n", stats.Records)
			fmt.Fprintf(e.out, "Dates:    %d\n", stats.Dates)
			fmt.Fprintf(e.out, "Expired:  %d\n", stats.Expired)
			fmt.Fprintf(e.out, "Upcoming: %d (next %d days)\n", stats.Upcoming, e.cfg.HorizonDays)
			fmt.Fprintln(e.out, "Metrics (this run):")
			for _, name := range stats.Metrics.Names() {
				if v, ok := stats.Metrics.Counters[name]; ok {
					fmt.Fprintf(e.out, "  %s = %d\n", name, v)
				} else if v, ok := stats.Metrics.Gauges[name]; ok {
					fmt.Fprintf(e.out, "  %s = %g\n", name, v)
				} else if v, ok := stats.Metrics.Timings[name]; ok {
					fmt.Fprintf(e.out, "  %s = %d calls, avg %s\n", name, v.Count, v.Average)
				}
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultPath()
			}
			created, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datebook %s\n", Version)
		},
	}
}

// parseRef reads the DATE POSITION argument pair.
func parseRef(args []string, ref event.Date) (event.Date, int, error) {
	date, err := event.ParseDateRelative(args[0], ref)
	if err != nil {
		return event.Date{}, 0, err
	}
	pos, err := parsePositionArg(args[1])
	if err != nil {
		return event.Date{}, 0, err
	}
	return date, pos, nil
}

// writeChange reports a successful mutation.
func writeChange(e *env, verb string, en event.Entry) error {
	out := toOutputEntry(e.today, en)
	if e.format == FormatJSON {
		return writeJSON(e.out, struct {
			Action string      `json:"action"`
			Event  OutputEntry `json:"event"`
		}{strings.ToLower(verb), out})
	}
	fmt.Fprintf(e.out, "%s %q on %s (#%d, %s)\n", verb, out.Name, out.Date, out.Position, out.When)
	return nil
}

// confirm asks a yes/no question on w and reads the answer from r.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
