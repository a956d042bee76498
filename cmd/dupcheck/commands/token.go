package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/dupcheck/internal/domain/auth"
)

var (
	tokenClient string
	tokenScopes []string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API credentials",
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Sign an access token with the configured secret",
	RunE:  runTokenMint,
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash-secret [secret]",
	Short: "Hash a client secret for auth.clients[].secretHash",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokenHash,
}

func init() {
	tokenMintCmd.Flags().StringVar(&tokenClient, "client", "", "client id placed in the subject claim (required)")
	tokenMintCmd.Flags().StringSliceVar(&tokenScopes, "scope", []string{"predict"}, "granted scopes")
	tokenMintCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.tokenTtl)")
	tokenMintCmd.MarkFlagRequired("client")
	tokenCmd.AddCommand(tokenMintCmd, tokenHashCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenMint(cmd *cobra.Command, args []string) error {
	if cfg.Auth.Secret == "" {
		return errors.New("auth.secret is not configured")
	}
	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}
	token, err := auth.Mint(auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer}, tokenClient, tokenScopes, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func runTokenHash(cmd *cobra.Command, args []string) error {
	secret, err := readTextArg(cmd, args)
	if err != nil {
		return err
	}
	hash, err := auth.HashSecret(strings.TrimSpace(secret))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
