// Package sources implements commands for inspecting the domain lists.
package sources

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nordnytt/aggregator/cmd/common"
	"github.com/nordnytt/aggregator/internal/domains"
	"github.com/nordnytt/aggregator/internal/policy"
	"github.com/nordnytt/aggregator/internal/urlutil"
)

// Command creates the sources command with its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect the allowed and blocked domain lists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(validateCommand())

	return cmd
}

// listCommand prints every configured domain and its effective status.
func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured domains",
		RunE: func(_ *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			lists, err := loadLists(deps)
			if err != nil {
				return err
			}

			filter := policy.NewFilter(lists.Blocked)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Domain", "Status"})

			for _, domain := range lists.Allowed {
				status := "allowed"
				if filter.IsBlocked(domain) {
					status = "blocked"
				}

				t.AppendRow(table.Row{domain, status})
			}

			for _, domain := range lists.Blocked {
				t.AppendRow(table.Row{domain, "blocked (listed)"})
			}

			t.Render()

			return nil
		},
	}
}

// validateCommand checks that both list files load and that every allowed
// domain is usable as a fetch target.
func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the domain list files",
		RunE: func(_ *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			lists, err := loadLists(deps)
			if err != nil {
				return err
			}

			var bad []string
			for _, domain := range lists.Allowed {
				if urlutil.Canonicalize("https://"+domain+"/") == "" {
					bad = append(bad, domain)
				}
			}

			if len(bad) > 0 {
				return fmt.Errorf("invalid domains in allowed list: %v", bad)
			}

			fmt.Printf("ok: %d allowed, %d blocked\n", len(lists.Allowed), len(lists.Blocked))

			return nil
		},
	}
}

func loadLists(deps *common.Deps) (*domains.Lists, error) {
	loader := domains.NewFileLoader(
		deps.Config.Fetch.AllowedList,
		deps.Config.Fetch.BlockedList,
	)

	lists, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load domain lists: %w", err)
	}

	return lists, nil
}
