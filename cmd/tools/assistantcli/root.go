package main

import (
	"github.com/spf13/cobra"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
)

type rootOptions struct {
	rulesFile string
}

func (o *rootOptions) table() (*intent.Table, error) {
	if o.rulesFile == "" {
		return intent.Default(), nil
	}
	return intent.LoadFile(o.rulesFile)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "assistantcli",
		Short: "Talk to the TD Carpool assistant from a terminal",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "rule table YAML file (default: embedded table)")

	root.AddCommand(newAskCmd(opts))
	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newRulesCmd(opts))
	return root
}
