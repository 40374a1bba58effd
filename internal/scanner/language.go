package scanner

import (
	"strings"
)

// languageMap maps file extensions to hardware description languages.
var languageMap = map[string]string{
	// SystemVerilog
	".sv":  "systemverilog",
	".svh": "systemverilog",
	".svi": "systemverilog",

	// Verilog
	".v":  "verilog",
	".vh": "verilog",
	".vg": "verilog",

	// VHDL is discovered but has no extractor
	".vhd":  "vhdl",
	".vhdl": "vhdl",
}

// DetectLanguage returns the HDL for a given file extension.
// Returns empty string if the extension is not recognized.
func DetectLanguage(ext string) string {
	return languageMap[strings.ToLower(ext)]
}
