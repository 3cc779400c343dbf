package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var who string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Resolve one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := role.Lookup(who)
			if !ok {
				return fmt.Errorf("unknown role %q (want one of %v)", who, role.All())
			}
			table, err := opts.table()
			if err != nil {
				return err
			}

			res := intent.NewResolver(table).Lookup(strings.Join(args, " "), r)
			out := cmd.OutOrStdout()
			if verbose {
				rule := res.Rule
				if !res.Matched {
					rule = "(fallback)"
				}
				fmt.Fprintf(out, "rule: %s\n\n", rule)
			}
			fmt.Fprintln(out, res.Reply)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&who, "role", string(role.Guest), "caller role: guest, rider, driver or admin")
	f.BoolVarP(&verbose, "verbose", "v", false, "print the matched rule")
	return cmd
}
