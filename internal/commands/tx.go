package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/model"
)

func newTxCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record and review transactions",
	}
	cmd.AddCommand(
		newTxAddCommand(g),
		newTxDeleteCommand(g),
		newTxListCommand(g),
	)
	return cmd
}

func newTxAddCommand(g *globalFlags) *cobra.Command {
	var date, desc string
	var specs []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a balanced transaction",
		Long: `Record a transaction from two or more splits given as ACCOUNT=AMOUNT.
Positive amounts are debits and negative amounts are credits; they must sum to zero.

  zenith tx add --desc "Electricity" --split expense-utilities-electricity=200 --split asset-bank=-200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			splits, err := parseSplits(specs)
			if err != nil {
				return err
			}
			return withSession(cmd, g, func(s *session) error {
				txn, err := s.book.AddTransaction(cmd.Context(), d, desc, splits)
				if err != nil {
					return err
				}
				fmt.Fprintln(s.stdout, txn.ID)
				return s.commit(cmd.Context(), "tx: Add "+desc)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringArrayVar(&specs, "split", nil, "ACCOUNT=AMOUNT, repeatable")
	_ = cmd.MarkFlagRequired("split")
	return cmd
}

func newTxDeleteCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, func(s *session) error {
				if err := s.book.DeleteTransaction(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(s.stdout, "Deleted %s\n", args[0])
				return s.commit(cmd.Context(), "tx: Delete "+args[0])
			})
		},
	}
}

func newTxListCommand(g *globalFlags) *cobra.Command {
	var account, from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, func(s *session) error {
				var txns []model.Transaction
				switch {
				case account != "":
					var err error
					if txns, err = s.book.TransactionsForAccount(account); err != nil {
						return err
					}
				case from != "" || to != "":
					first, err := parseDate(from)
					if err != nil {
						return err
					}
					last, err := parseDate(to)
					if err != nil {
						return err
					}
					txns = s.book.TransactionsBetween(first, last)
				default:
					txns = s.book.AllTransactions()
				}
				if len(txns) == 0 {
					fmt.Fprintln(s.stdout, "No transactions.")
					return nil
				}
				return printTransactions(s, txns, account)
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only transactions touching this account")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD, default today)")
	return cmd
}

// printTransactions writes one line per transaction. With a focus account
// the line shows that account's split; otherwise every split follows.
func printTransactions(s *session, txns []model.Transaction, focus string) error {
	w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
	for _, t := range txns {
		desc := t.Description
		if t.Kind == model.KindOpeningBalance {
			desc += " [opening]"
		}
		if focus != "" {
			amt, _ := t.AmountFor(focus)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", model.FormatDate(t.Date), t.ID, desc, s.money.Split(amt))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", model.FormatDate(t.Date), t.ID, desc)
		for _, sp := range t.Splits {
			fmt.Fprintf(w, "\t\t  %s\t%s\n", sp.AccountID, s.money.Split(sp.Amount))
		}
	}
	return w.Flush()
}
