package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/metrics"
	"github.com/goliatone/go-formwizard/pkg/orchestrator"
	"github.com/goliatone/go-formwizard/pkg/tui"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func onboardCmd(a *app) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Run the onboarding wizard in the terminal",
		Long: `Walks through the onboarding steps one at a time. Progress is saved as a
draft after every completed step and resumed on the next run. With an API
URL configured the current profile seeds the answers and the final step
submits them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.onboard(cmd, fresh)
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "discard any saved draft and start over")
	return cmd
}

func (a *app) onboard(cmd *cobra.Command, fresh bool) (err error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := a.openDrafts()
	if err != nil {
		return err
	}
	defer store.Close()

	if fresh {
		if err := ignoreNotFound(store.Delete(ctx, a.cfg.Owner, a.flow.ID)); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg, a.flow.ID)
	if err != nil {
		return err
	}
	defer func() {
		if werr := a.writeMetrics(reg); werr != nil && err == nil {
			err = werr
		}
	}()

	options := []orchestrator.Option{
		orchestrator.WithFlow(a.flow),
		orchestrator.WithDraftStore(store, a.cfg.Owner),
		orchestrator.WithObserver(collector),
		orchestrator.WithLogger(a.logger),
	}
	if a.cfg.Online() {
		client, err := a.profileClient(ctx)
		if err != nil {
			return err
		}
		options = append(options, orchestrator.WithProfileAPI(client))
	}

	session, err := orchestrator.New(options...).Start(ctx)
	if err != nil {
		return err
	}
	switch session.Source {
	case orchestrator.SourceDraft:
		fmt.Fprintf(out, "Resuming your saved draft at step %d.\n", session.Wizard.Cursor())
	case orchestrator.SourceProfile:
		fmt.Fprintln(out, "Loaded your current profile.")
	}

	runner, err := tui.New(session.Wizard,
		tui.WithPromptDriver(a.driver),
		tui.WithLogger(a.logger),
		tui.WithOnStep(func(ctx context.Context, _ *wizard.Wizard) error {
			return session.SaveDraft(ctx)
		}),
	)
	if err != nil {
		return err
	}

	values, err := runner.Run(ctx)
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Fprintln(out, "Onboarding cancelled. Completed steps stay saved as a draft.")
		return nil
	}
	if err != nil {
		return err
	}

	a.logger.Info("onboarding finished", slog.String("flow", a.flow.ID), slog.Bool("submitted", a.cfg.Online()))
	summary, err := tui.Summary(session.Wizard.Steps(), values)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, summary)
	if a.cfg.Online() {
		fmt.Fprintln(out, "Profile submitted.")
	} else {
		fmt.Fprintln(out, "Onboarding complete. No API configured, nothing was submitted.")
	}
	return nil
}

func (a *app) writeMetrics(reg *prometheus.Registry) error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
