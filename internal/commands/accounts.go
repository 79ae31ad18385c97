package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/balance"
	"github.com/zenith-ledger/zenith/internal/book"
	"github.com/zenith-ledger/zenith/internal/model"
)

func newAccountsCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountsTreeCommand(g),
		newAccountsAddCommand(g),
		newAccountsEditCommand(g),
		newAccountsShowCommand(g),
	)
	return cmd
}

func newAccountsTreeCommand(g *globalFlags) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "tree [parent-id]",
		Short: "Show the account hierarchy with balances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := ""
			if len(args) > 0 {
				parent = args[0]
			}
			cut := balance.Unbounded
			if asOf != "" {
				d, err := parseDate(asOf)
				if err != nil {
					return err
				}
				cut = balance.AsOf(d)
			}
			return withSession(cmd, g, func(s *session) error {
				nodes, err := s.book.Hierarchy(parent)
				if err != nil {
					return err
				}
				balances, err := s.book.Balances(cut)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
				printTree(w, s, nodes, balances)
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "balances as of this date (YYYY-MM-DD)")
	return cmd
}

func printTree(w io.Writer, s *session, nodes []accounts.Node, balances map[string]decimal.Decimal) {
	for _, n := range nodes {
		name := strings.Repeat("  ", n.Depth) + n.Account.Name
		if n.Account.Placeholder {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, n.Account.ID, s.money.Balance(n.Account.Type, balances[n.Account.ID]))
		printTree(w, s, n.Children, balances)
	}
}

// accountFlags are the editable fields of an account.
type accountFlags struct {
	id          string
	name        string
	accountType string
	parent      string
	placeholder bool
	description string
	opening     string
	openingDate string
}

func (f *accountFlags) register(cmd *cobra.Command, withID bool) {
	if withID {
		cmd.Flags().StringVar(&f.id, "id", "", "account id (generated when empty)")
	}
	cmd.Flags().StringVar(&f.name, "name", "", "account name")
	cmd.Flags().StringVar(&f.accountType, "type", "", "ASSET, LIABILITY, EQUITY, INCOME or EXPENSE")
	cmd.Flags().StringVar(&f.parent, "parent", "", "parent account id")
	cmd.Flags().BoolVar(&f.placeholder, "placeholder", false, "grouping account that takes no postings")
	cmd.Flags().StringVar(&f.description, "description", "", "free-form description")
	cmd.Flags().StringVar(&f.opening, "opening", "", "opening balance on the account's normal side")
	cmd.Flags().StringVar(&f.openingDate, "opening-date", "", "opening balance date (default today)")
}

// openingInput returns nil when no opening balance was given.
func (f *accountFlags) openingInput(cmd *cobra.Command) (*book.OpeningInput, error) {
	if !cmd.Flags().Changed("opening") {
		return nil, nil
	}
	amount, err := parseAmount(f.opening)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(f.openingDate)
	if err != nil {
		return nil, err
	}
	return &book.OpeningInput{Amount: amount, Date: date}, nil
}

func newAccountsAddCommand(g *globalFlags) *cobra.Command {
	var f accountFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseAccountType(f.accountType)
			if err != nil {
				return err
			}
			ob, err := f.openingInput(cmd)
			if err != nil {
				return err
			}
			acct := model.Account{
				ID:          f.id,
				Name:        f.name,
				Type:        t,
				ParentID:    f.parent,
				Placeholder: f.placeholder,
				Description: f.description,
			}
			return withSession(cmd, g, func(s *session) error {
				added, err := s.book.AddAccount(cmd.Context(), acct, ob)
				if added.ID == "" {
					return err
				}
				// The account can exist even when its opening balance failed.
				fmt.Fprintln(s.stdout, added.ID)
				return errors.Join(err, s.commit(cmd.Context(), "accounts: Add "+added.Name))
			})
		},
	}
	f.register(cmd, true)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newAccountsEditCommand(g *globalFlags) *cobra.Command {
	var f accountFlags

	cmd := &cobra.Command{
		Use:   "edit <account-id>",
		Short: "Change an account's fields or opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ob, err := f.openingInput(cmd)
			if err != nil {
				return err
			}
			return withSession(cmd, g, func(s *session) error {
				acct, err := s.book.FindAccount(args[0])
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					acct.Name = f.name
				}
				if flags.Changed("type") {
					if acct.Type, err = model.ParseAccountType(f.accountType); err != nil {
						return err
					}
				}
				if flags.Changed("parent") {
					acct.ParentID = f.parent
				}
				if flags.Changed("placeholder") {
					acct.Placeholder = f.placeholder
				}
				if flags.Changed("description") {
					acct.Description = f.description
				}
				if _, err := s.book.UpdateAccount(cmd.Context(), acct, ob); err != nil {
					return err
				}
				fmt.Fprintf(s.stdout, "Updated %s\n", acct.ID)
				return s.commit(cmd.Context(), "accounts: Edit "+acct.Name)
			})
		},
	}
	f.register(cmd, false)
	return cmd
}

func newAccountsShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show an account with its balance and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, func(s *session) error {
				acct, err := s.book.FindAccount(args[0])
				if err != nil {
					return err
				}
				bal, err := s.book.Balance(acct.ID)
				if err != nil {
					return err
				}
				parent := "-"
				if acct.ParentID != "" {
					parent = acct.ParentID
				}

				w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "ID:\t%s\n", acct.ID)
				fmt.Fprintf(w, "Name:\t%s\n", acct.Name)
				fmt.Fprintf(w, "Type:\t%s\n", acct.Type)
				fmt.Fprintf(w, "Parent:\t%s\n", parent)
				fmt.Fprintf(w, "Placeholder:\t%t\n", acct.Placeholder)
				if acct.Description != "" {
					fmt.Fprintf(w, "Description:\t%s\n", acct.Description)
				}
				fmt.Fprintf(w, "Balance:\t%s\n", s.money.Balance(acct.Type, bal))
				if ob, ok, err := s.book.OpeningBalance(acct.ID); err != nil {
					return err
				} else if ok {
					fmt.Fprintf(w, "Opening:\t%s on %s\n", s.money.Amount(ob.Amount), model.FormatDate(ob.Date))
				}
				if err := w.Flush(); err != nil {
					return err
				}

				txns, err := s.book.TransactionsForAccount(acct.ID)
				if err != nil {
					return err
				}
				if len(txns) == 0 {
					return nil
				}
				fmt.Fprintln(s.stdout)
				return printTransactions(s, txns, acct.ID)
			})
		},
	}
}
