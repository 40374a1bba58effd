package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-spygen/internal/config"
	"github.com/l3aro/go-spygen/internal/healthcheck"
	"github.com/l3aro/go-spygen/pkg/types"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize spygen configuration interactively",
	Long: `Guides you through setting up spygen step by step.
Creates a config file with the RTL location, the bind target and the
signals to spy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

// initAnswers holds the values collected by the init form.
type initAnswers struct {
	Scope          string
	RTLPath        string
	TopModule      string
	Testbench      string
	TopInstance    string
	Mode           string
	RegisterSuffix string
	OutputDir      string
}

func runInit() error {
	defaults := config.DefaultConfig()
	answers := initAnswers{
		Scope:          "project",
		RTLPath:        defaults.RTLPath,
		Testbench:      defaults.Testbench,
		TopInstance:    defaults.TopInstance,
		Mode:           string(defaults.Mode),
		RegisterSuffix: defaults.RegisterSuffix,
		OutputDir:      defaults.OutputDir,
	}

	// === SECTION 1: Scope and sources ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the configuration be saved?").
				Options(
					huh.NewOption("This project (.spygen/config.yaml)", "project"),
					huh.NewOption("Global (~/.spygen/config.yaml)", "global"),
				).
				Value(&answers.Scope),
			huh.NewInput().
				Title("RTL directory").
				Placeholder(defaults.RTLPath).
				Value(&answers.RTLPath),
			huh.NewInput().
				Title("Top module").
				Description("Leave empty to detect it from the instantiation graph").
				Value(&answers.TopModule),
		),
		// === SECTION 2: Bind target and signals ===
		huh.NewGroup(
			huh.NewInput().
				Title("Testbench module").
				Placeholder(defaults.Testbench).
				Value(&answers.Testbench),
			huh.NewInput().
				Title("DUT instance name in the testbench").
				Placeholder(defaults.TopInstance).
				Value(&answers.TopInstance),
			huh.NewSelect[string]().
				Title("Signals to spy").
				Options(
					huh.NewOption("Ports and registers", string(types.ModeBoth)),
					huh.NewOption("Ports only", string(types.ModePorts)),
					huh.NewOption("Registers only", string(types.ModeRegisters)),
				).
				Value(&answers.Mode),
			huh.NewInput().
				Title("Register suffix").
				Placeholder(defaults.RegisterSuffix).
				Value(&answers.RegisterSuffix),
			huh.NewInput().
				Title("Output directory").
				Placeholder(defaults.OutputDir).
				Value(&answers.OutputDir),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfgPath := config.ProjectConfigFilePath()
	if answers.Scope == "global" {
		cfgPath = config.GlobalConfigFilePath()
		if cfgPath == "" {
			return errors.New("cannot determine home directory for global config")
		}
	}

	if _, err := os.Stat(cfgPath); err == nil {
		overwrite := false
		confirm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s already exists. Overwrite?", cfgPath)).
					Value(&overwrite),
			),
		)
		if err := confirm.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Aborted, existing configuration kept.")
			return nil
		}
	}

	cfg := answers.config(defaults)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// === SECTION 3: Preview and save ===
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", cfgPath)
	fmt.Printf("RTL path: %s\n", cfg.RTLPath)
	if cfg.TopModule == "" {
		fmt.Println("Top module: auto-detect")
	} else {
		fmt.Printf("Top module: %s\n", cfg.TopModule)
	}
	fmt.Printf("Bind target: %s.%s\n", cfg.Testbench, cfg.TopInstance)
	fmt.Printf("Mode: %s\n", cfg.Mode)
	fmt.Printf("Register suffix: %s\n", cfg.RegisterSuffix)
	fmt.Printf("Output dir: %s\n", cfg.OutputDir)
	fmt.Println("================================")

	if err := cfg.Save(cfgPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", cfgPath)

	// === SECTION 4: Health Check ===
	fmt.Println("\n=== Running Health Check ===")
	result, err := healthcheck.Check(cfg, cfgPath, cfgPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	displayDoctorResult(os.Stdout, result)
	if result.HasErrors() {
		fmt.Println("\nFix the errors above, then run 'spygen doctor'.")
		return nil
	}

	fmt.Println("\n=== Initialization Complete ===")
	return nil
}

// config applies the answers on top of base. Empty answers keep the base value.
func (a initAnswers) config(base *config.Config) *config.Config {
	cfg := *base
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.RTLPath, a.RTLPath)
	set(&cfg.Testbench, a.Testbench)
	set(&cfg.TopInstance, a.TopInstance)
	set(&cfg.RegisterSuffix, a.RegisterSuffix)
	set(&cfg.OutputDir, a.OutputDir)
	cfg.TopModule = a.TopModule
	if a.Mode != "" {
		cfg.Mode = types.Mode(a.Mode)
	}
	return &cfg
}
