package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-spygen/internal/generate"
	"github.com/l3aro/go-spygen/pkg/types"
)

var (
	modulesJSON bool
	modulesYAML bool
)

// moduleSummary is the inventory entry printed for one module.
type moduleSummary struct {
	Name       string               `json:"name" yaml:"name"`
	File       string               `json:"file" yaml:"file"`
	Line       int                  `json:"line" yaml:"line"`
	Parameters []types.Parameter    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Ports      []types.Port         `json:"ports,omitempty" yaml:"ports,omitempty"`
	Registers  []types.Register     `json:"registers,omitempty" yaml:"registers,omitempty"`
	Instances  []types.InstanceEdge `json:"instances,omitempty" yaml:"instances,omitempty"`
}

type modulesReport struct {
	Files       int                   `json:"files" yaml:"files"`
	Modules     []moduleSummary       `json:"modules" yaml:"modules"`
	Diagnostics []generate.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules discovered in the RTL tree",
	Long: `List every module found in the RTL tree with its parameters, ports,
registers and the instances it contains.

Examples:
  spygen modules
  spygen modules --rtl ./hw --json
  spygen modules --yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if modulesJSON && modulesYAML {
			return fmt.Errorf("--json and --yaml are mutually exclusive")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := generate.New(cfg, logger())
		if err != nil {
			return err
		}
		design, err := p.Discover(cmd.Context())
		if err != nil {
			return err
		}

		report := buildModulesReport(design)
		out := cmd.OutOrStdout()
		switch {
		case modulesJSON:
			return outputModulesJSON(out, report)
		case modulesYAML:
			return outputModulesYAML(out, report)
		default:
			outputModulesText(out, report)
			printDiagnostics(cmd.ErrOrStderr(), report.Diagnostics)
			return nil
		}
	},
}

func init() {
	modulesCmd.Flags().BoolVarP(&modulesJSON, "json", "j", false, "Output as JSON")
	modulesCmd.Flags().BoolVarP(&modulesYAML, "yaml", "y", false, "Output as YAML")
}

func buildModulesReport(design *generate.Design) modulesReport {
	report := modulesReport{Files: design.Files, Diagnostics: design.Diagnostics}
	for _, m := range design.Registry.Modules() {
		report.Modules = append(report.Modules, moduleSummary{
			Name:       m.Name,
			File:       m.File,
			Line:       m.Line,
			Parameters: m.Parameters,
			Ports:      m.Ports,
			Registers:  m.Registers,
			Instances:  m.Instances,
		})
	}
	return report
}

func outputModulesJSON(w io.Writer, report modulesReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputModulesYAML(w io.Writer, report modulesReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func outputModulesText(w io.Writer, report modulesReport) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%d modules in %d files\n", len(report.Modules), report.Files)
	for _, m := range report.Modules {
		fmt.Fprintf(w, "\n%s %s\n", bold(m.Name), faint(fmt.Sprintf("%s:%d", m.File, m.Line)))
		fmt.Fprintf(w, "  parameters: %d  ports: %d  registers: %d\n",
			len(m.Parameters), len(m.Ports), len(m.Registers))
		if len(m.Instances) > 0 {
			names := make([]string, len(m.Instances))
			for i, inst := range m.Instances {
				names[i] = inst.Alias + " (" + inst.Module + ")"
			}
			fmt.Fprintf(w, "  instances: %s\n", strings.Join(names, ", "))
		}
	}
}
