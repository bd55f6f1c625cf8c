package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xostack/xosymptom"
	"github.com/xostack/xosymptom/internal/server"
	"github.com/xostack/xosymptom/symptom"
)

type serveOptions struct {
	*rootOptions
	addr      string
	allowDemo bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Long: `Serve a JSON API:

  POST /api/analyze  {"symptoms": "..."}  -> analysis result
  GET  /api/health                        -> {"status": "ok", "provider": "..."}`,
		Args: cobra.NoArgs,
		RunE: opts.run,
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from config, :3000)")
	cmd.Flags().BoolVar(&opts.allowDemo, "allow-demo", false, "Answer from the keyword rules when no model is configured")

	return cmd
}

func (o *serveOptions) run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := o.load(cmd)
	if err != nil {
		return err
	}

	var extra []symptom.Option
	if o.allowDemo {
		extra = append(extra, symptom.WithFallbackOnly())
	}

	ctx := cmd.Context()
	analyzer, err := xosymptom.NewAnalyzer(ctx, cfg, logger, o.debug, extra...)
	if err != nil {
		return fmt.Errorf("failed to set up AI models: %w", err)
	}
	defer analyzer.Close()

	addr := o.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	return server.New(analyzer, logger).ListenAndServe(ctx, addr)
}
