package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	vigilerrors "github.com/yairfalse/vigil/internal/errors"
	"github.com/yairfalse/vigil/internal/logger"
	"github.com/yairfalse/vigil/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
	log     logger.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Host drift detection for unattended security appliances",
	Long: `Vigil watches a single host for intrusion indicators: it snapshots
security-relevant facts (binary hashes, set-uid inventory, user accounts,
authorized keys, network peers), diffs each capture against the previous
one, folds the findings together with live resource and service telemetry,
and publishes a single JSON status record for dashboards and APIs.

A companion bring-up state machine recovers network connectivity on
unattended first boot and keeps watching it afterwards.

  vigil check            # one detection pass
  vigil check --deep     # include the peer discovery scan
  vigil watch            # one pass per tick, forever
  vigil netup --watchdog # connectivity watchdog pass
  vigil status           # print the last published record`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			runVersion(cmd)
			return nil
		}
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command. The exit code contract is strict: alerts
// are data, not failure; only an unpublishable status record exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if vigilerrors.Fatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vigil/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("version", false, "show version information")

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output.no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newNetupCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newConfigureCommand())
	rootCmd.AddCommand(newVersionCommand())
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ExpandPaths(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log = logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	return nil
}
