package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-spygen/internal/config"
	"github.com/l3aro/go-spygen/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the configuration and the RTL tree",
	Long: `Checks that the RTL directory contains sources, the template parses,
the extraction cache is readable and the output directory is usable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		path := effectiveConfigPath()
		result, err := healthcheck.Check(cfg, path, path)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(cmd.OutOrStdout(), result)
		if result.HasErrors() {
			return errors.New("health check failed: one or more checks did not pass")
		}
		return nil
	},
}

// effectiveConfigPath returns the file the configuration was read from,
// or "" when only defaults and the environment apply.
func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if fileExists(config.ProjectConfigFilePath()) {
		return config.ProjectConfigFilePath()
	}
	if global := config.GlobalConfigFilePath(); global != "" && fileExists(global) {
		return global
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintln(w, "Using config: defaults (no config file found)")
	} else {
		fmt.Fprintf(w, "Using config: %s (%s)\n", result.EffectivePath, result.EffectiveScope)
	}
	fmt.Fprintln(w)

	printItem(w, "RTL", result.RTL)
	printItem(w, "Template", result.Template)
	printItem(w, "Cache", result.Cache)
	printItem(w, "Output", result.Output)
}

func printItem(w io.Writer, name string, s healthcheck.ItemStatus) {
	fmt.Fprintf(w, "%s:\n", name)
	if s.Path != "" {
		fmt.Fprintf(w, "  Path: %s\n", s.Path)
	}
	fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(s.Status), s.Status)
	if s.Detail != "" {
		fmt.Fprintf(w, "  %s\n", s.Detail)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", s.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return color.GreenString("✓")
	case healthcheck.StatusMissing, healthcheck.StatusDisabled:
		return color.YellowString("○")
	case healthcheck.StatusError:
		return color.RedString("✗")
	default:
		return "?"
	}
}
