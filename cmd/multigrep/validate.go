package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxhq/multigrep/internal/config"
	"github.com/oxhq/multigrep/internal/rule"
)

func newValidateCmd() *cobra.Command {
	var jsonOutput bool
	var wholeWord bool
	caseSensitive := true
	cmd := &cobra.Command{
		Use:   "validate RULES_FILE",
		Short: "Validate a rules document without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], jsonOutput, caseSensitive, wholeWord)
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output a CLIError JSON payload on failure.")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", true, "Default case sensitivity for rules that don't override it.")
	cmd.Flags().BoolVar(&wholeWord, "whole-word", false, "Default whole-word setting for rules that don't override it.")
	return cmd
}

func runValidate(path string, jsonOutput, caseSensitive, wholeWord bool) error {
	doc, err := config.LoadDocument(path)
	if err != nil {
		printFatal(err, jsonOutput)
		return err
	}

	set, err := rule.NewSet(doc.ToRuleInputs(), rule.Defaults{CaseSensitive: caseSensitive, WholeWord: wholeWord})
	if err != nil {
		printFatal(err, jsonOutput)
		return err
	}

	if jsonOutput {
		fmt.Printf(`{"valid":true,"rule_count":%d}`+"\n", len(set.Rules))
		return nil
	}
	fmt.Printf("✓ %s — %d rules valid\n", path, len(set.Rules))
	return nil
}
