package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/auth"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// apiClient talks to the fintrack HTTP API.
type apiClient struct {
	baseURL string
	timeout time.Duration
	token   string
	owner   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &apiClient{}

	rootCmd := &cobra.Command{
		Use:           "fintrack-cli",
		Short:         "Fintrack CLI tool",
		Long:          `A command line interface for interacting with the Fintrack ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", envOr("FINTRACK_URL", "http://localhost:8080"), "Base URL of the Fintrack API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("FINTRACK_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().StringVar(&c.owner, "owner", os.Getenv("FINTRACK_OWNER"), "Owner id sent as X-Owner-ID when the server runs without auth")

	rootCmd.AddCommand(
		newEntriesCmd(c),
		newBalanceCmd(c),
		newFinalizeCmd(c),
		newLedgerCmd(c),
		newTokenCmd(),
	)

	return rootCmd
}

func newEntriesCmd(c *apiClient) *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Entry operations",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in ledger order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/entries"
			if all {
				path += "?include_finalized=true"
			}

			var entries []dto.EntryResponse
			if err := c.do(cmd.Context(), http.MethodGet, path, nil, &entries); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tCATEGORY\tCREDIT\tDEBIT\tBALANCE\tFINAL")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					e.ID, e.Date, e.Description, e.Category, e.Credit, e.Debit, e.Balance, e.Finalized)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "Include finalized entries")

	var req dto.CreateEntryRequest
	var credit, debit string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Credit, err = parseFlagAmount("credit", credit); err != nil {
				return err
			}
			if req.Debit, err = parseFlagAmount("debit", debit); err != nil {
				return err
			}

			var entry dto.EntryResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/entries", req, &entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s, balance %s\n", entry.ID, entry.Date, entry.Balance)
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Date, "date", "", "Entry date (YYYY-MM-DD), defaults to today")
	addCmd.Flags().StringVar(&req.Description, "description", "", "Description")
	addCmd.Flags().StringVar(&req.Category, "category", "", "Category")
	addCmd.Flags().StringVar(&req.Currency, "currency", "", "Currency of the amount, defaults to the base currency")
	addCmd.Flags().StringVar(&credit, "credit", "", "Credit amount")
	addCmd.Flags().StringVar(&debit, "debit", "", "Debit amount")
	addCmd.MarkFlagsMutuallyExclusive("credit", "debit")
	addCmd.MarkFlagsOneRequired("credit", "debit")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an active entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do(cmd.Context(), http.MethodDelete, "/api/v1/entries/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	entriesCmd.AddCommand(listCmd, addCmd, rmCmd)
	return entriesCmd
}

func newBalanceCmd(c *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the current balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var balance dto.BalanceResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/balance", nil, &balance); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", balance.Balance, balance.Currency)
			return nil
		},
	}
}

func newFinalizeCmd(c *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize",
		Short: "Archive every active entry and record the closing balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary dto.SummaryResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/ledger/finalize", nil, &summary); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Finalized %s: %d entries, closing balance %s\n",
				summary.Period, summary.EntryCount, summary.ClosingBalance)
			return nil
		},
	}
}

func newLedgerCmd(c *apiClient) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var repair bool
	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/ledger/consistency"
			if repair {
				path += "?repair=true"
			}

			// 409 still carries the report.
			var report dto.ConsistencyResponse
			err := c.do(cmd.Context(), http.MethodGet, path, nil, &report)
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.status == http.StatusConflict {
				if json.Unmarshal(apiErr.body, &report) != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries checked: %d\n", report.EntriesChecked)
			fmt.Fprintf(out, "Recorded balance: %s\n", report.RecordedBalance)
			fmt.Fprintf(out, "Calculated balance: %s\n", report.CalculatedBalance)
			for _, m := range report.Mismatches {
				fmt.Fprintf(out, "  %s stored %s expected %s\n", m.EntryID, m.Stored, m.Expected)
			}

			switch {
			case report.Repaired:
				fmt.Fprintln(out, "Consistency check REPAIRED")
			case report.Consistent:
				fmt.Fprintln(out, "Consistency check PASSED")
			default:
				return fmt.Errorf("consistency check FAILED: %d mismatched entries", len(report.Mismatches))
			}
			return nil
		},
	}
	consistencyCmd.Flags().BoolVar(&repair, "repair", false, "Recalculate stored balances when they disagree")

	ledgerCmd.AddCommand(consistencyCmd)
	return ledgerCmd
}

func newTokenCmd() *cobra.Command {
	var owner, secret, provider string
	var ttl time.Duration

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := domain.Principal{Kind: domain.PrincipalLocal, Subject: owner}
			if provider != "" {
				principal = domain.Principal{Kind: domain.PrincipalFederated, Subject: owner, Provider: provider}
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(principal)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&owner, "owner", "", "Subject the token is issued for")
	tokenCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	tokenCmd.Flags().StringVar(&provider, "provider", "", "External identity provider of the subject")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("owner")

	return tokenCmd
}

// apiError carries a non-2xx response.
type apiError struct {
	status int
	body   []byte
}

func (e *apiError) Error() string {
	var resp dto.ErrorResponse
	if json.Unmarshal(e.body, &resp) == nil && resp.Error != "" {
		if resp.Message != "" {
			return fmt.Sprintf("%s (status %d): %s", resp.Error, e.status, resp.Message)
		}
		return fmt.Sprintf("%s (status %d)", resp.Error, e.status)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.status, strings.TrimSpace(string(e.body)))
}

func parseFlagAmount(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not a decimal number", name, value)
	}
	return &d, nil
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.owner != "" {
		req.Header.Set("X-Owner-ID", c.owner)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{status: resp.StatusCode, body: data}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
