package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/datebook/internal/config"
	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
	"github.com/pfrederiksen/datebook/internal/storage"
	"github.com/pfrederiksen/datebook/internal/store"
	"github.com/pfrederiksen/datebook/internal/tui"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitCorrupt    = 4
	ExitReminders  = 5
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

var (
	flagConfig   string
	flagDataFile string
	flagFormat   string
	flagVerbose  bool
	flagNoColor  bool
)

// logFile is the open log_file of the current run, closed by Run.
var logFile *os.File

// today is the reference day for every query; tests replace it.
var today = event.Today

// exitStatus ends the command with a specific exit code and no message.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datebook",
		Short: "Keep track of dated personal events",
		Long: `A personal calendar that stores named events by date and reminds you
of what is coming up. Without a subcommand it opens the interactive view.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.config/datebook/config.yaml)")
	pf.StringVar(&flagDataFile, "data-file", "", "Event data file (overrides config)")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newUpcomingCmd(),
		newListCmd(),
		newAddCmd(),
		newShowCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newSearchCmd(),
		newExportCmd(),
		newImportCmd(),
		newRemindCmd(),
		newStatsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return cmd
}

// env is what a command needs once flags and config are resolved.
type env struct {
	cfg    *config.Config
	store  *store.Store
	format OutputFormat
	out    io.Writer
	today  event.Date
}

// loadConfig resolves configuration and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := config.Flags{NoColor: flagNoColor}
	if cmd.Flags().Changed("data-file") {
		flags.DataFile = &flagDataFile
	}
	if flagVerbose {
		debug := "debug"
		flags.LogLevel = &debug
	}

	cfg, err := config.Load(flagConfig, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := setupLogger(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(cmd *cobra.Command, cfg *config.Config) error {
	closeLogFile()
	var w io.Writer = cmd.ErrOrStderr()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logFile = f
		w = f
	}
	logger.SetDefault(logger.New(cfg.Level(), w))
	return nil
}

// closeLogFile restores the stderr logger and closes the log file, if any.
func closeLogFile() {
	if logFile == nil {
		return
	}
	logger.SetDefault(logger.New(logger.LevelWarn, os.Stderr))
	if err := logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
	logFile = nil
}

// openEnv loads config, opens the data file and validates --format.
func openEnv(cmd *cobra.Command) (*env, error) {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	st, err := storage.New(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	s, err := store.Open(st)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	return &env{
		cfg:    cfg,
		store:  s,
		format: format,
		out:    cmd.OutOrStdout(),
		today:  today(),
	}, nil
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	if format != FormatText && format != FormatJSON {
		return "", &event.ValidationError{Field: "format", Message: fmt.Sprintf("invalid format %q (must be 'text' or 'json')", s)}
	}
	return format, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	return tui.Run(e.store, tui.Options{
		HorizonDays:   e.cfg.HorizonDays,
		ConfirmDelete: e.cfg.ConfirmDelete,
		Watch:         e.cfg.Watch,
		DataFile:      e.cfg.DataFile,
		Color:         e.cfg.Color,
	})
}

// Run executes the command tree with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	defer closeLogFile()
	return exitCode(cmd.Execute(), stderr)
}

// exitCode maps err to an exit code, printing it unless it only carries a code.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	switch {
	case errors.Is(err, event.ErrValidation):
		return ExitValidation
	case errors.Is(err, event.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, storage.ErrCorrupt):
		return ExitCorrupt
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
