package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/auth"
	"github.com/hance08/dtl/internal/ui/prompts"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type tokenIssueFlags struct {
	TTL time.Duration
}

type tokenRunner struct {
	loader *app.Loader
}

func NewTokenCmd(loader *app.Loader) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and check bearer tokens for the HTTP API",
		Long: `Issue and check bearer tokens for the HTTP API.

Tokens are only enforced when auth.required is true.`,
	}

	flags := &tokenIssueFlags{}
	issueCmd := &cobra.Command{
		Use:   "issue [subject]",
		Short: "Issue a token for a client",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &tokenRunner{loader: loader}
			subject := ""
			if len(args) == 1 {
				subject = args[0]
			}
			return runner.Issue(subject, flags.TTL)
		},
	}
	issueCmd.Flags().DurationVar(&flags.TTL, "ttl", 0, "Token lifetime (default auth.ttl)")

	validateCmd := &cobra.Command{
		Use:   "validate <token>",
		Short: "Check a token and print its subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &tokenRunner{loader: loader}
			return runner.Validate(args[0])
		},
	}

	tokenCmd.AddCommand(issueCmd, validateCmd)
	return tokenCmd
}

func (r *tokenRunner) issuer() (*auth.Issuer, error) {
	cfg := r.loader.Config()
	return auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TTL)
}

func (r *tokenRunner) Issue(subject string, ttl time.Duration) error {
	issuer, err := r.issuer()
	if err != nil {
		return err
	}

	if subject == "" {
		subject, err = prompts.PromptInput("Subject", "", func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("subject is required")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	var token string
	if ttl > 0 {
		token, err = issuer.IssueWithTTL(subject, ttl)
	} else {
		token, err = issuer.Issue(subject)
	}
	if err != nil {
		return err
	}

	pterm.Success.Printf("Token issued for %s\n", subject)
	fmt.Println(token)
	return nil
}

func (r *tokenRunner) Validate(token string) error {
	issuer, err := r.issuer()
	if err != nil {
		return err
	}

	subject, err := issuer.Validate(token)
	if err != nil {
		return err
	}

	pterm.Success.Printf("Token is valid, subject: %s\n", subject)
	return nil
}
