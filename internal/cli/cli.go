package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/happyhackingspace/mmp/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configFile  string
	initialized bool
	v           *viper.Viper
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, v: config.New()}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "mmp",
		Short:         "Marginal message passing for factorised discrete POMDPs",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")
	c.rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "Settings file (yaml, json or toml)")

	c.rootCmd.AddCommand(c.newInferCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	err := c.rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// SetArgs overrides the arguments the CLI parses.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// initApp initializes logging.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// settings resolves inference settings for cmd, honouring its flags.
func (c *CLI) settings(cmd *cobra.Command) (*config.Settings, error) {
	if err := config.BindFlags(c.v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(c.v, c.configFile)
}

// addInferenceFlags registers the flags shared by infer and evaluate.
func addInferenceFlags(cmd *cobra.Command) {
	cmd.Flags().Int(config.KeyNumIter, 10, "Number of message-passing sweeps")
	cmd.Flags().Float64(config.KeyTau, 0.25, "Gradient step size (with --grad-descent)")
	cmd.Flags().Bool(config.KeyGradDescent, false, "Use the gradient-descent belief update")
	cmd.Flags().Bool(config.KeyLastTimestep, false, "The policy ends at the episode's final step")
	cmd.Flags().String(config.KeyMetricsFile, "", "Write Prometheus metrics to this file after the run")
}
