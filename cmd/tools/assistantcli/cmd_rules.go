package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

func newRulesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the rule table in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := opts.table()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, rule := range table.Rules() {
				fmt.Fprintf(out, "%d. %-12s %s\n", i+1, rule.Name, strings.Join(rule.Keywords, ", "))
				if rule.Template.RoleConditional() {
					var roles []string
					for _, r := range role.All() {
						if _, ok := rule.Template.ByRole[r]; ok {
							roles = append(roles, r.String())
						}
					}
					fmt.Fprintf(out, "   role-conditional: %s; others restricted\n", strings.Join(roles, ", "))
				}
			}
			fmt.Fprintf(out, "suggestions: %s\n", strings.Join(table.Suggestions(), " | "))
			return nil
		},
	}
}
