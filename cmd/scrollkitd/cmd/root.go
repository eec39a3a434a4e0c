package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gioverse/scrollkit/internal/config"
	"github.com/gioverse/scrollkit/logx"
	"github.com/gioverse/scrollkit/profile"
)

var (
	verbose    bool
	configPath string
	profileOpt string

	log logx.Logger
	cfg *config.Config
	prof profile.Profiler
)

var rootCmd = &cobra.Command{
	Use:   "scrollkitd",
	Short: "Headless harness for the virtualized scroll engine pipeline",
	Long: `scrollkitd drives the scroll engine, sliced controller, recycler,
and item-scroll handle pipeline against a synthetic data source,
without any GUI host. It exists to exercise request supersession,
virtualization, and swipe-to-remove compaction end to end, and to
make an artificial fetch-latency knob observable from the outside.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logx.LevelInfo
		if verbose {
			level = logx.LevelDebug
		}
		log = logx.New(level, os.Stderr)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		prof = profile.Opt(profileOpt).NewProfiler()
		prof.Start()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		prof.Stop()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a scrollkitd config file (yaml/json/toml)")
	rootCmd.PersistentFlags().StringVar(&profileOpt, "profile", "", "profiling mode: cpu, mem, block, goroutine, mutex, trace")

	binName := filepath.Base(os.Args[0])
	rootCmd.Example = `  # Run the default simulation against 5000 synthetic rows
  ` + binName + ` run

  # Inject 50ms of artificial fetch latency to observe stale-request drops
  ` + binName + ` run --fetch-latency 50ms -v

  # Spread the source across 10 categories and widen requests to their bounds
  ` + binName + ` run --item-count 2000 --categories 10`
}

// Log returns the harness's configured logger.
func Log() logx.Logger { return log }

// Config returns the loaded configuration.
func Config() *config.Config { return cfg }

// Profiler returns the active profiler, so a command can feed it a
// per-tick recorder.
func Profiler() *profile.Profiler { return &prof }
