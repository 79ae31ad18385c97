package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/model"
)

func newBalanceCommand(g *globalFlags) *cobra.Command {
	var asOf, from string

	cmd := &cobra.Command{
		Use:   "balance [account-id...]",
		Short: "Show account balances including sub-accounts",
		Long: `Show the balance of each account rolled up over its sub-accounts, on the
account's normal side. Without arguments the five top-level accounts are shown.
With --from the movement over the period is shown instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var first, last time.Time
			var err error
			if asOf != "" {
				if last, err = parseDate(asOf); err != nil {
					return err
				}
			}
			if from != "" {
				if first, err = parseDate(from); err != nil {
					return err
				}
				if last.IsZero() {
					last = model.Day(time.Now())
				}
			}

			ids := args
			if len(ids) == 0 {
				for _, t := range model.AccountTypes {
					ids = append(ids, accounts.RootID(t))
				}
			}

			return withSession(cmd, g, func(s *session) error {
				w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
				for _, id := range ids {
					acct, err := s.book.FindAccount(id)
					if err != nil {
						return err
					}
					var raw decimal.Decimal
					switch {
					case !first.IsZero():
						raw, err = s.book.Change(id, first, last)
					case !last.IsZero():
						raw, err = s.book.BalanceAsOf(id, last)
					default:
						raw, err = s.book.Balance(id)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", acct.Name, acct.ID, s.money.Balance(acct.Type, raw))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "only transactions on or before this date")
	cmd.Flags().StringVar(&from, "from", "", "show the change since this date instead")
	return cmd
}
