package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xostack/xosymptom"
	"github.com/xostack/xosymptom/internal/formatter"
	"github.com/xostack/xosymptom/symptom"
)

type analyzeOptions struct {
	*rootOptions
	outputFormat string
	demo         bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "analyze SYMPTOMS...",
		Short: "Analyze a symptom description",
		Long: `Send a symptom description to the configured AI models and print possible
conditions, next steps and urgent-care warnings.

Examples:
  # Analyze with the configured models
  xosymptom analyze "headache and mild fever since yesterday"

  # Use the built-in keyword rules only
  xosymptom analyze --demo "sore throat and cough"

  # Machine-readable output
  xosymptom analyze -o json "stomach pain after eating"`,
		Args: cobra.MinimumNArgs(1),
		RunE: opts.run,
	}

	cmd.Flags().StringVarP(&opts.outputFormat, "output", "o", formatter.FormatHuman, "Output format (human, json, yaml)")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Answer from the built-in keyword rules without calling any model")

	return cmd
}

func (o *analyzeOptions) run(cmd *cobra.Command, args []string) error {
	if !formatter.ValidFormat(o.outputFormat) {
		return fmt.Errorf("unsupported output format %q (use human, json or yaml)", o.outputFormat)
	}

	symptoms := strings.TrimSpace(strings.Join(args, " "))
	if symptoms == "" {
		return fmt.Errorf("symptom description must not be empty")
	}

	cfg, logger, err := o.load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var analyzer *symptom.Analyzer
	if o.demo {
		analyzer = symptom.New(nil, symptom.WithFallbackOnly(), symptom.WithLogger(logger))
	} else {
		analyzer, err = xosymptom.NewAnalyzer(ctx, cfg, logger, o.debug)
		if err != nil {
			return fmt.Errorf("failed to set up AI models: %w", err)
		}
	}
	defer analyzer.Close()

	human := o.outputFormat == formatter.FormatHuman
	if human {
		printHeader(cmd, symptoms)
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " Analyzing symptoms..."
	if human {
		s.Start()
	}

	result, err := analyzer.Analyze(ctx, symptoms)
	s.Stop()
	if err != nil {
		if symptom.IsKind(err, symptom.KindConfiguration) {
			return fmt.Errorf("%w: set GOOGLE_API_KEY, run 'xosymptom config init', or use --demo", err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	return formatter.Display(cmd.OutOrStdout(), result, o.outputFormat)
}

func printHeader(cmd *cobra.Command, symptoms string) {
	cyan := color.New(color.FgCyan, color.Bold)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	cyan.Fprintln(out, "xosymptom: educational symptom guidance")
	fmt.Fprintf(out, "Symptoms: %s\n", symptoms)
}
