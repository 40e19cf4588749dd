package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibbank/registry-risk/internal/application/dto"
	"github.com/bibbank/registry-risk/internal/application/usecase"
	"github.com/bibbank/registry-risk/internal/domain/service"
	"github.com/bibbank/registry-risk/internal/infrastructure/config"
	"github.com/bibbank/registry-risk/internal/infrastructure/postgres"
	"github.com/bibbank/registry-risk/internal/infrastructure/snapshot"
)

// AnalyzeCommand creates the analyze command, which scores subjects against
// a registry snapshot file without a database.
func AnalyzeCommand() *cobra.Command {
	var (
		snapshotPath string
		paramsPath   string
		cnpjs        []string
		cpfs         []string
		depth        int
		details      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score CNPJs or CPFs against a registry snapshot file",
		Long: `Load a JSON registry snapshot ({"entities": [...], "partnerships": [...]})
and print the risk report of every subject as JSON.

Examples:
  riskctl analyze --snapshot registry.json --cnpj 11.222.333/0001-81
  riskctl analyze --snapshot registry.json --cnpj 11222333000181 --cpf 52998224725 --details`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(cnpjs) == 0 && len(cpfs) == 0 {
				return fmt.Errorf("at least one --cnpj or --cpf is required")
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), commandLogger(cmd), analyzeOptions{
				snapshotPath: snapshotPath,
				paramsPath:   paramsPath,
				cnpjs:        cnpjs,
				cpfs:         cpfs,
				depth:        depth,
				details:      details,
			})
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Registry snapshot JSON file")
	cmd.Flags().StringVar(&paramsPath, "params", "", "YAML file overriding detector thresholds")
	cmd.Flags().StringSliceVar(&cnpjs, "cnpj", nil, "CNPJ to analyze (repeatable)")
	cmd.Flags().StringSliceVar(&cpfs, "cpf", nil, "CPF to analyze (repeatable)")
	cmd.Flags().IntVar(&depth, "depth", postgres.DefaultRelatedDepth, "Ownership hops loaded around each subject")
	cmd.Flags().BoolVar(&details, "details", false, "Include per-detector details")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

type analyzeOptions struct {
	snapshotPath string
	paramsPath   string
	cnpjs        []string
	cpfs         []string
	depth        int
	details      bool
}

func runAnalyze(ctx context.Context, out io.Writer, logger *slog.Logger, opts analyzeOptions) error {
	source, err := snapshot.Load(opts.snapshotPath, opts.depth)
	if err != nil {
		return err
	}
	params, err := config.LoadParams(opts.paramsPath)
	if err != nil {
		return err
	}

	analyzer := service.NewAnalyzer(params, logger)
	check := usecase.NewCheckFraud(source, analyzer, nil, nil, nil, logger)

	checks := make([]dto.CheckInput, 0, len(opts.cnpjs)+len(opts.cpfs))
	for _, c := range opts.cnpjs {
		checks = append(checks, dto.CheckInput{CNPJ: c})
	}
	for _, c := range opts.cpfs {
		checks = append(checks, dto.CheckInput{CPF: c})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if len(checks) == 1 {
		resp, err := check.Execute(ctx, dto.FraudCheckRequest{CheckInput: checks[0], IncludeDetails: opts.details})
		if err != nil {
			return err
		}
		return enc.Encode(resp)
	}

	resp, err := usecase.NewBatchCheck(check, 1, logger).Execute(ctx, dto.BatchCheckRequest{
		Checks:         checks,
		IncludeDetails: opts.details,
	})
	if err != nil {
		return err
	}
	return enc.Encode(resp)
}
