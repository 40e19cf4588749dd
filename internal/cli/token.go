package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bibbank/registry-risk/pkg/auth"
)

// TokenCommand creates the token command, which signs a development JWT.
func TokenCommand() *cobra.Command {
	var (
		secret   string
		keyFile  string
		issuer   string
		tenantID string
		userID   string
		roles    []string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a JWT for calling the risk service",
		Long: `Sign a JWT with the HMAC secret (default JWT_SECRET) or an RSA private key.

Examples:
  riskctl token --tenant 6f1c... --roles analyst
  riskctl token --key private.pem --roles api_client --ttl 24h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := auth.JWTConfig{Secret: secret, Issuer: issuer, Expiration: ttl}
			if cfg.Secret == "" {
				cfg.Secret = os.Getenv("JWT_SECRET")
			}
			if keyFile != "" {
				pem, err := auth.LoadKeyFromFile(keyFile)
				if err != nil {
					return err
				}
				cfg.PrivateKeyPEM = string(pem)
			}

			tenant, err := parseOrNew(tenantID)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			user, err := parseOrNew(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			svc, err := auth.NewJWTService(cfg)
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(user, tenant, roles)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (overrides JWT_SECRET)")
	cmd.Flags().StringVar(&keyFile, "key", "", "PEM RSA private key; signs with RS256")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Token issuer")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (random when empty)")
	cmd.Flags().StringVar(&userID, "user", "", "User UUID (random when empty)")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{auth.RoleAnalyst}, "Granted roles")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

func parseOrNew(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}
