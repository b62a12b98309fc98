package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pagecrest/domains/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL   string
	apiToken string
	cfgFile  string
	asJSON   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "domainctl",
	Short: "Pagecrest custom domains CLI",
	Long: `domainctl manages custom domains on the Pagecrest platform.

It validates domains, attaches them to tenants, polls verification status,
and resolves hostnames the way the public edge router does.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.pagecrest")
			viper.SetConfigName("domainctl")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "http://localhost:8080"
		}
		if apiToken == "" {
			apiToken = viper.GetString("api_token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.pagecrest/domainctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "domains service URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "dashboard bearer token")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON responses")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}

func api() *client.Client {
	opts := []client.Option{}
	if apiToken != "" {
		opts = append(opts, client.WithToken(apiToken))
	}
	return client.New(apiURL, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(records []client.DNSRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tVALUE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Type, r.Name, r.Value)
	}
	w.Flush() //nolint:errcheck
}

// ── validate ─────────────────────────────────────────────────────────────────

var validateCmd = &cobra.Command{
	Use:   "validate <domain>",
	Short: "Check a domain's syntax and policy without any side effects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := api().ValidateDomain(context.Background(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(result)
		}
		if !result.Valid {
			return fmt.Errorf("invalid: %s", result.Error)
		}
		kind := "subdomain"
		if result.IsApex {
			kind = "apex"
		}
		fmt.Printf("ok: %s (%s)\n", result.Hostname, kind)
		return nil
	},
}

// ── add ──────────────────────────────────────────────────────────────────────

var addCmd = &cobra.Command{
	Use:   "add <tenant-id> <domain>",
	Short: "Attach a custom domain to a tenant and print the DNS records to create",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := api().AddDomain(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(result)
		}
		fmt.Printf("domain %s attached (state: %s)\n", result.Hostname, result.State)
		for _, warning := range result.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}
		fmt.Println("\nCreate these DNS records, verification records first:")
		printRecords(result.Records)
		fmt.Println("\nThen poll with: domainctl status", args[0])
		return nil
	},
}

// ── status ───────────────────────────────────────────────────────────────────

var statusWait time.Duration

var statusCmd = &cobra.Command{
	Use:   "status <tenant-id>",
	Short: "Run one verification pass and print the domain status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deadline := time.Now().Add(statusWait)
		for {
			status, err := api().DomainStatus(context.Background(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(status); err != nil {
					return err
				}
			} else {
				fmt.Printf("%s: %s\n", status.Hostname, status.State)
				for _, e := range status.Check.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			if status.Check.Verified || statusWait == 0 || time.Now().After(deadline) {
				if !status.Check.Verified && statusWait > 0 {
					return errors.New("domain not verified before deadline")
				}
				return nil
			}
			time.Sleep(10 * time.Second)
		}
	},
}

func init() {
	statusCmd.Flags().DurationVar(&statusWait, "wait", 0, "poll until verified or the duration elapses (e.g. 5m); 0 checks once")
}

// ── remove ───────────────────────────────────────────────────────────────────

var removeCmd = &cobra.Command{
	Use:   "remove <tenant-id>",
	Short: "Detach a tenant's custom domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api().RemoveDomain(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("domain removed")
		return nil
	},
}

// ── resolve ──────────────────────────────────────────────────────────────────

var resolveCmd = &cobra.Command{
	Use:   "resolve <hostname>",
	Short: "Resolve a hostname to its tenant the way the edge router does",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := api().Resolve(context.Background(), args[0])
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("%s does not resolve to any tenant", args[0])
			}
			return err
		}
		if asJSON {
			return printJSON(result)
		}
		fmt.Printf("%s → tenant %s (slug %s)\n", args[0], result.TenantID, result.Slug)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the domainctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("domainctl", version)
	},
}
