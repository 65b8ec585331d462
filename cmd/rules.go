package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-classifier/internal/scorer"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate classification rules",
}

var rulesDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the built-in rules as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := scorer.MarshalRules(scorer.DefaultRules())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a YAML rule file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := scorer.LoadRules(args[0])
		if err != nil {
			return err
		}
		if _, err := scorer.NewEngine(rules); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (version %s)\n", args[0], rules.Version)
		return err
	},
}

func init() {
	rulesCmd.AddCommand(rulesDumpCmd, rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}
