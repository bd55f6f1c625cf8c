// Package formatter renders analysis results for the terminal.
package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/xostack/xosymptom/symptom"
)

// Formats accepted by Display.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormat reports whether format is one Display understands.
func ValidFormat(format string) bool {
	switch format {
	case FormatHuman, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Display writes result to w in the requested format. Unknown formats fall
// back to the human-readable layout.
func Display(w io.Writer, result symptom.Result, format string) error {
	switch format {
	case FormatJSON:
		return displayJSON(w, result)
	case FormatYAML:
		return displayYAML(w, result)
	default:
		displayHuman(w, result)
	}
	return nil
}

func displayJSON(w io.Writer, result symptom.Result) error {
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func displayYAML(w io.Writer, result symptom.Result) error {
	output, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(output))
	return err
}

func displayHuman(w io.Writer, result symptom.Result) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)

	if result.DemoMode {
		yellow.Fprintln(w, "DEMO MODE: keyword-based guidance, no AI model was reached")
		if result.AnalyzedSymptoms != "" {
			fmt.Fprintf(w, "   Symptoms: %s\n", result.AnalyzedSymptoms)
		}
		fmt.Fprintln(w)
	}

	cyan.Fprintln(w, "POSSIBLE CONDITIONS:")
	writeList(w, result.Conditions)

	green.Fprintln(w, "RECOMMENDED NEXT STEPS:")
	writeList(w, result.NextSteps)

	red.Fprintln(w, "SEEK URGENT CARE IF:")
	for _, item := range result.UrgentCare {
		fmt.Fprintf(w, "   ! %s\n", color.RedString(item))
	}
	fmt.Fprintln(w)

	if result.Note != "" {
		yellow.Fprintln(w, "NOTE:")
		fmt.Fprintln(w, wrapText(result.Note, 80, "   "))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintln(w, wrapText(result.Disclaimer, 80, ""))
	fmt.Fprintf(w, "%s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func writeList(w io.Writer, items []string) {
	for i, item := range items {
		fmt.Fprintf(w, "   %d. %s\n", i+1, item)
	}
	fmt.Fprintln(w)
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder

	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		current := indent
		for _, word := range words {
			switch {
			case current == indent:
				current += word
			case len(current)+len(word)+1 > width:
				result.WriteString(current + "\n")
				current = indent + word
			default:
				current += " " + word
			}
		}
		result.WriteString(current + "\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
