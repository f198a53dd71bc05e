package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/accounts"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store/sqlstore"
)

func newAccountsCommand(configPath *string) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Export a company's accounts as an accounts CSV",
		Long: `Export a company's accounts in the same CSV layout "cashflow import accounts"
reads, so the output can seed another project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, cmd, *configPath)
			if err != nil {
				return err
			}
			defer p.Close()

			rows, err := sqlstore.NewAccounts(p.db, p.log).ListAccounts(ctx, companyID)
			if err != nil {
				return err
			}
			accts := make([]model.Account, 0, len(rows))
			for _, row := range rows {
				a, err := accounts.FromRow(row)
				if err != nil {
					return err
				}
				accts = append(accts, a)
			}

			return accounts.WriteAccounts(cmd.OutOrStdout(), accounts.NewService(companyID, accts).All())
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id (required)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
