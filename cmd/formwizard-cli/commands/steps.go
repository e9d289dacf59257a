package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func stepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the steps and fields of the flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", a.flow.Title, a.flow.ID)
			for _, step := range a.flow.Steps {
				fmt.Fprintf(out, "%d. %s [%d%%]\n", step.Order, step.Title, step.CompletionPercent)
				if step.Description != "" {
					fmt.Fprintf(out, "   %s\n", step.Description)
				}
				fields := make([]string, 0, len(step.Keys()))
				for _, key := range step.Keys() {
					label := wizard.HumanizeKey(key)
					if step.IsRequired(key) {
						label += " *"
					}
					fields = append(fields, label)
				}
				fmt.Fprintf(out, "   fields: %s\n", strings.Join(fields, ", "))
			}
			return nil
		},
	}
}
