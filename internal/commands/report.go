package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/cashflow"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store/sqlstore"
)

// Output formats.
const (
	formatJSON  = "json"
	formatTable = "table"
)

func newReportCommand(configPath *string) *cobra.Command {
	var params cashflow.Params
	var noBalances bool
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute a company's cash flow for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatTable {
				return fmt.Errorf("unknown format %q (want json or table)", format)
			}
			if noBalances {
				include := false
				params.IncludeBalances = &include
			}

			ctx := cmd.Context()
			p, err := openProject(ctx, cmd, *configPath)
			if err != nil {
				return err
			}
			defer p.Close()

			engine := cashflow.NewEngine(cashflow.Sources{
				Accounts:    sqlstore.NewAccounts(p.db, p.log),
				Ledger:      sqlstore.NewLedger(p.db, p.log),
				Receivables: sqlstore.NewInstallments(p.db, sqlstore.ReceivablesTables, p.log),
				Payables:    sqlstore.NewInstallments(p.db, sqlstore.PayablesTables, p.log),
			},
				cashflow.WithLogger(p.log),
				cashflow.WithTimeout(p.cfg.Engine.Timeout),
				cashflow.WithMaxConcurrency(p.cfg.Engine.MaxConcurrency),
			)

			res, err := engine.ComputeCashFlow(ctx, params)
			if err != nil {
				return err
			}

			if format == formatTable {
				return writeTable(cmd.OutOrStdout(), res)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.CompanyID, "company", "", "company id (required)")
	_ = cmd.MarkFlagRequired("company")
	f.StringVar(&params.StartDate, "from", "", "first day, YYYY-MM-DD (default: first day of this month)")
	f.StringVar(&params.EndDate, "to", "", "last day, YYYY-MM-DD (default: last day of this month)")
	f.StringVar(&params.DateType, "date-type", string(model.DateTypePayment), "installment date to bucket on: pagamento or vencimento")
	f.StringVar(&params.Status, "status", string(model.FilterAll), "status filter: todos, pago or pendente")
	f.BoolVar(&noBalances, "no-balances", false, "skip opening balances; running balances become deltas")
	f.Int64SliceVar(&params.AccountIDs, "account", nil, "restrict to account id (repeatable)")
	f.BoolVar(&params.IncludePaidHistory, "paid-history", false, "with --status pendente, still list paid movements")
	f.StringVarP(&format, "format", "o", formatTable, "output format: table or json")

	return cmd
}

func writeTable(w io.Writer, res model.CashFlowResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "Company %s, %s to %s (%d days, %s, %s)\n\n",
		res.CompanyID,
		res.Period.Start.Format(model.DateFormat),
		res.Period.End.Format(model.DateFormat),
		res.Period.Days(),
		res.Filters.DateType,
		res.Filters.Status)

	fmt.Fprintln(tw, "DATE\tIN\tOUT\tBALANCE\tMOVEMENTS\t")
	fmt.Fprintf(tw, "opening\t\t\t%s\t\t\n", res.InitialBalance.StringFixed(2))
	for _, b := range res.DailyBuckets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t\n",
			b.Date.Format(model.DateFormat),
			b.TotalIn.StringFixed(2),
			b.TotalOut.StringFixed(2),
			b.RunningBalance.StringFixed(2),
			len(b.Movements))
	}
	fmt.Fprintf(tw, "total\t%s\t%s\t%s\t%d\t\n",
		res.Totals.TotalIn.StringFixed(2),
		res.Totals.TotalOut.StringFixed(2),
		res.FinalBalance.StringFixed(2),
		res.Totals.MovementCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.AccountBalances) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\nAccounts\n")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tNAME\tOPENING\tCURRENT\t")
	for _, a := range res.AccountBalances {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", a.AccountID, strings.TrimSpace(a.Name), a.OpeningBalance.StringFixed(2), a.CurrentBalance.StringFixed(2))
	}
	return tw.Flush()
}
