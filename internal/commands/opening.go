package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/model"
)

func newOpeningCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opening",
		Short: "Manage account opening balances",
	}
	cmd.AddCommand(newOpeningSetCommand(g), newOpeningGetCommand(g))
	return cmd
}

func newOpeningSetCommand(g *globalFlags) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "set <account-id> <amount>",
		Short: "Set or replace an opening balance (0 removes it)",
		Long: `Set the opening balance of an account, offset against Opening Balances.
The amount is positive when it increases the account on its normal side.
Setting it again replaces the previous opening balance; 0 removes it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			return withSession(cmd, g, func(s *session) error {
				ob, ok, err := s.book.SetOpeningBalance(cmd.Context(), args[0], amount, d)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(s.stdout, "No opening balance for %s\n", args[0])
				} else {
					fmt.Fprintf(s.stdout, "Opening balance for %s: %s on %s (%s)\n",
						args[0], s.money.Amount(ob.Amount), model.FormatDate(ob.Date), ob.TransactionID)
				}
				return s.commit(cmd.Context(), "opening: Set "+args[0])
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "opening date YYYY-MM-DD (default today)")
	return cmd
}

func newOpeningGetCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account's opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, func(s *session) error {
				ob, ok, err := s.book.OpeningBalance(args[0])
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(s.stdout, "No opening balance for %s\n", args[0])
					return nil
				}
				fmt.Fprintf(s.stdout, "Opening balance for %s: %s on %s (%s)\n",
					args[0], s.money.Amount(ob.Amount), model.FormatDate(ob.Date), ob.TransactionID)
				return nil
			})
		},
	}
}
