package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hushfs/internal/config"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string

	settings *config.Config
	logger   *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hush",
	Short: "Create encrypted-at-rest HushFS volume images and their keys",
	Long: `hush creates and inspects HushFS volumes: single-file filesystem
containers whose keys are protected at rest by a password.

Commands:
  keygen      Generate a password protected key pair
  verify-key  Check that a password opens a private key
  create      Create and format a new volume image
  inspect     Show the geometry and allocation state of a volume
  config      Show the effective configuration`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return errors.New("--verbose and --quiet cannot be combined")
		}
		switch outputFormat {
		case "table", "json", "yaml":
		default:
			return fmt.Errorf("unsupported output format: %s", outputFormat)
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		settings = cfg
		logger = newLogger(cfg)
		if cfg.File != "" {
			logger.WithField("file", cfg.File).Debug("Loaded configuration")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var common *app.CommonError
		if errors.As(err, &common) && verbose {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", common.Code, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default hush-config.yaml in ., $HOME/.hush or /etc/hush)")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	level := cfg.Level()
	switch {
	case verbose:
		level = logrus.DebugLevel
	case quiet:
		level = logrus.ErrorLevel
	}
	l.SetLevel(level)
	return l
}

// newContext builds the application context shared by every command
func newContext(cmd *cobra.Command) *app.Context {
	ctx := app.NewContext()
	ctx.Out = cmd.OutOrStdout()
	ctx.ErrOut = cmd.ErrOrStderr()
	ctx.OutputFormat = outputFormat
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	ctx.Config = settings
	if logger != nil {
		ctx.Logger = logger
	}
	return ctx
}
