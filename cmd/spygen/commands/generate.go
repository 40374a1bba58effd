package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-spygen/internal/generate"
)

var (
	genStdout   bool
	genOutput   string
	genMode     string
	genTemplate string
	genRebuild  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the spy interface for the top module",
	Long: `Scan the RTL tree, resolve the top module, flatten its hierarchy and write
<top>_spy_if.sv with one spied signal per port and register.

Examples:
  spygen generate
  spygen generate --top soc --mode registers
  spygen generate --stdout
  spygen generate --rebuild-cache`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyMode(cfg, genMode); err != nil {
			return err
		}
		if genOutput != "" {
			cfg.OutputDir = genOutput
		}
		if genTemplate != "" {
			cfg.Template = genTemplate
		}

		p, err := generate.New(cfg, logger())
		if err != nil {
			return err
		}
		if genRebuild {
			if err := p.ClearCache(); err != nil {
				return err
			}
		}
		res, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		printDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)

		if genStdout {
			return p.Render(cmd.OutOrStdout(), res)
		}

		path, err := p.WriteFile(res)
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d ports, %d registers)\n",
			green("wrote"), path, len(res.Ports), len(res.Registers))
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&genStdout, "stdout", false, "Write the interface to stdout instead of a file")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output directory")
	generateCmd.Flags().StringVarP(&genMode, "mode", "m", "", "Signals to spy: ports, registers or both")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "Custom template file")
	generateCmd.Flags().BoolVar(&genRebuild, "rebuild-cache", false, "Discard the extraction cache before scanning")
}

// printDiagnostics lists recoverable problems found during a run.
func printDiagnostics(w io.Writer, diags []generate.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, d := range diags {
		fmt.Fprintf(w, "%s %s\n", yellow("warning:"), d)
	}
}

