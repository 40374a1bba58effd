package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-spygen/internal/config"
	"github.com/l3aro/go-spygen/internal/log"
	"github.com/l3aro/go-spygen/pkg/types"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "spygen",
	Short: "spygen - SystemVerilog spy interface generator",
	Long: `spygen scans an RTL tree, resolves the top module and flattens its
instantiation hierarchy into a single interface that exposes internal
ports and registers to the testbench.

Commands:
  generate    Generate the <top>_spy_if.sv interface
  modules     List the modules discovered in the RTL tree
  tree        Display the instantiation tree below the top module
  init        Create a configuration file interactively
  doctor      Check the configuration and the RTL tree

Use "spygen [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger().Sync()
	},
}

// Global flags shared by every subcommand.
var (
	configPath string
	verbose    bool
	logJSON    bool
	rtlPath    string
	topModule  string
)

// Execute runs the root command and prints any error as a banner.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: global then .spygen/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	RootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	RootCmd.PersistentFlags().StringVarP(&rtlPath, "rtl", "r", "", "RTL directory to scan")
	RootCmd.PersistentFlags().StringVarP(&topModule, "top", "t", "", "Top module (skips auto-detection)")

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(modulesCmd)
	RootCmd.AddCommand(treeCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(doctorCmd)
}

var cliLogger *log.DefaultLogger

func logger() *log.DefaultLogger {
	if cliLogger == nil {
		cliLogger = log.Nop()
	}
	return cliLogger
}

// loadConfig loads the configuration and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("rtl") {
		cfg.RTLPath = rtlPath
	}
	if flags.Changed("top") {
		cfg.TopModule = topModule
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = logJSON
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	cliLogger = log.Default()
	cliLogger.SetLevel(level)
	cliLogger.SetJSONOutput(cfg.LogJSON)
	return cfg, nil
}

// applyMode overrides cfg.Mode from a --mode flag value.
func applyMode(cfg *config.Config, mode string) error {
	if mode == "" {
		return nil
	}
	m := types.Mode(mode)
	if !m.Valid() {
		return fmt.Errorf("invalid mode: %s (use ports, registers or both)", mode)
	}
	cfg.Mode = m
	return nil
}

// printError writes a red error banner to stderr.
func printError(err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
}
