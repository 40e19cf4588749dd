package cli

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	grpcpresentation "github.com/bibbank/registry-risk/internal/presentation/grpc"
)

// CheckCommand creates the check command, which calls a running riskd over gRPC.
func CheckCommand() *cobra.Command {
	var (
		addr    string
		token   string
		cnpj    string
		cpf     string
		useTLS  bool
		details bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a fraud check against a running service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cnpj == "" && cpf == "" {
				return fmt.Errorf("--cnpj or --cpf is required")
			}
			if token == "" {
				token = os.Getenv("RISK_TOKEN")
			}

			creds := insecure.NewCredentials()
			if useTLS {
				creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
			}
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
			if err != nil {
				return fmt.Errorf("failed to dial %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if token != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
			}

			resp, err := grpcpresentation.NewRiskServiceClient(conn).FraudCheck(ctx, &grpcpresentation.FraudCheckRequest{
				CheckMsg:       grpcpresentation.CheckMsg{CNPJ: cnpj, CPF: cpf},
				IncludeDetails: details,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Report)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8090", "gRPC address of the service")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (defaults to RISK_TOKEN)")
	cmd.Flags().StringVar(&cnpj, "cnpj", "", "CNPJ to check")
	cmd.Flags().StringVar(&cpf, "cpf", "", "CPF to check")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "Dial with TLS")
	cmd.Flags().BoolVar(&details, "details", false, "Include per-detector details")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Call timeout")
	cmd.MarkFlagsMutuallyExclusive("cnpj", "cpf")

	return cmd
}
