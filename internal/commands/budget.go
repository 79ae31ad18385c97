package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/model"
)

func newBudgetCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Plan income and expenses per fiscal year",
	}
	cmd.AddCommand(
		newBudgetSetCommand(g),
		newBudgetGetCommand(g),
		newBudgetReportCommand(g),
	)
	return cmd
}

// fiscalYear returns the --year flag, or the fiscal year containing today.
func fiscalYear(cmd *cobra.Command, s *session, year int) int {
	if cmd.Flags().Changed("year") {
		return year
	}
	return s.book.FiscalYearOf(time.Now())
}

func newBudgetSetCommand(g *globalFlags) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "set <account-id> <amount>",
		Short: "Set the planned amount for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, g, func(s *session) error {
				if _, err := s.book.FindAccount(args[0]); err != nil {
					return err
				}
				fy := fiscalYear(cmd, s, year)
				if err := s.book.SetBudget(cmd.Context(), fy, args[0], amount); err != nil {
					return err
				}
				fmt.Fprintf(s.stdout, "Budget for %s in FY%d: %s\n", args[0], fy, s.money.Amount(amount))
				return s.commit(cmd.Context(), fmt.Sprintf("budget: Set %s FY%d", args[0], fy))
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year (default current)")
	return cmd
}

func newBudgetGetCommand(g *globalFlags) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show the planned amount for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, func(s *session) error {
				fy := fiscalYear(cmd, s, year)
				amount, ok := s.book.LookupBudget(fy, args[0])
				if !ok {
					fmt.Fprintf(s.stdout, "No budget for %s in FY%d\n", args[0], fy)
					return nil
				}
				fmt.Fprintf(s.stdout, "Budget for %s in FY%d: %s\n", args[0], fy, s.money.Amount(amount))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year (default current)")
	return cmd
}

func newBudgetReportCommand(g *globalFlags) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare budgets with actual activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, func(s *session) error {
				fy := fiscalYear(cmd, s, year)
				rows, err := s.book.BudgetReport(fy)
				if err != nil {
					return err
				}
				first, last := s.book.FiscalYearStart().Range(fy)
				fmt.Fprintf(s.stdout, "FY%d (%s to %s)\n", fy, model.FormatDate(first), model.FormatDate(last))

				w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tBUDGETED\tACTUAL\tREMAINING")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Account.Name,
						s.money.Amount(r.Budgeted), s.money.Amount(r.Actual), s.money.Amount(r.Remaining))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year (default current)")
	return cmd
}
