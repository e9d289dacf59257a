package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <answers.json>",
		Short: "Check a JSON file of answers against every step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readAnswers(args[0])
			if err != nil {
				return err
			}

			w, err := a.flow.New(wizard.WithLogger(a.logger))
			if err != nil {
				return err
			}
			w.Open(values)

			out := cmd.OutOrStdout()
			failed := 0
			for i, step := range w.Steps() {
				errs := w.Validate(i + 1)
				if len(errs) == 0 {
					fmt.Fprintf(out, "Step %d %s: ok\n", step.Order, step.Title)
					continue
				}
				fmt.Fprintf(out, "Step %d %s:\n", step.Order, step.Title)
				for _, key := range step.Keys() {
					if msg, ok := errs[key]; ok {
						fmt.Fprintf(out, "  %s: %s\n", key, msg)
						failed++
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d field(s) failed validation", failed)
			}
			return nil
		},
	}
}

func readAnswers(path string) (wizard.FormState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var values wizard.FormState
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if values == nil {
		values = wizard.FormState{}
	}
	return values, nil
}
