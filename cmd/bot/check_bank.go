package main

import (
	"fmt"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
	"github.com/spf13/cobra"
)

var checkBankCmd = &cobra.Command{
	Use:   "check-bank <file>",
	Short: "Validate a question bank file and show how many options score for each scale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := service.ParseQuestionBank(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		counts := bank.OptionCounts()
		fmt.Fprintf(out, "%d questions\n", len(bank.Questions))
		for _, s := range bank.Scales {
			fmt.Fprintf(out, "%-8s %-30s %d\n", s.ID, s.Title, counts[s.ID])
		}
		return nil
	},
}
