package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/drafts"
	"github.com/goliatone/go-formwizard/pkg/flow"
	"github.com/goliatone/go-formwizard/pkg/profile"
	"github.com/goliatone/go-formwizard/pkg/tui"
)

// app carries what every subcommand shares once flags and env are resolved.
type app struct {
	cfg    config.Config
	flow   flow.Flow
	logger *slog.Logger
	driver tui.PromptDriver
}

type rootOptions struct {
	loadConfig func() (config.Config, error)
	driver     tui.PromptDriver
}

// Execute runs the CLI against the process environment.
func Execute() error {
	root := newRootCmd(rootOptions{loadConfig: config.Load})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newRootCmd(opts rootOptions) *cobra.Command {
	var (
		apiURL      string
		apiToken    string
		openAPIPath string
		flowPath    string
		draftDB     string
		owner       string
		logLevel    string
		metricsFile string
	)

	a := &app{}

	cmd := &cobra.Command{
		Use:           "formwizard",
		Short:         "Freelancer onboarding wizard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			override(&cfg.APIURL, apiURL)
			override(&cfg.APIToken, apiToken)
			override(&cfg.OpenAPIPath, openAPIPath)
			override(&cfg.FlowPath, flowPath)
			override(&cfg.DraftDB, draftDB)
			override(&cfg.Owner, owner)
			override(&cfg.LogLevel, logLevel)
			override(&cfg.MetricsFile, metricsFile)
			if err := cfg.Validate(); err != nil {
				return err
			}

			f, err := loadFlow(cfg.FlowPath)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.flow = f
			a.logger = logging.New(cfg.LogLevel, cmd.ErrOrStderr())
			a.driver = opts.driver
			if a.driver == nil {
				a.driver = tui.NewSurveyDriver(cmd.OutOrStdout())
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&apiURL, "api-url", "", "profile API base URL (env FORMWIZARD_API_URL)")
	flags.StringVar(&apiToken, "token", "", "profile API bearer token (env FORMWIZARD_API_TOKEN)")
	flags.StringVar(&openAPIPath, "openapi", "", "OpenAPI document describing the profile API (env FORMWIZARD_OPENAPI)")
	flags.StringVar(&flowPath, "flow", "", "flow definition YAML (env FORMWIZARD_FLOW)")
	flags.StringVar(&draftDB, "drafts", "", "draft database path, :memory: to disable persistence (env FORMWIZARD_DRAFT_DB)")
	flags.StringVar(&owner, "owner", "", "draft owner (env FORMWIZARD_OWNER)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env FORMWIZARD_LOG_LEVEL)")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file after a run (env FORMWIZARD_METRICS_FILE)")

	cmd.AddCommand(onboardCmd(a), validateCmd(a), stepsCmd(a), draftsCmd(a))
	return cmd
}

func override(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

func loadFlow(path string) (flow.Flow, error) {
	if path == "" {
		return flow.Default()
	}
	return flow.LoadFile(path)
}

func (a *app) openDrafts() (*drafts.SQLiteStore, error) {
	return drafts.OpenSQLite(a.cfg.DraftDB)
}

func (a *app) profileClient(ctx context.Context) (*profile.Client, error) {
	endpoints, err := a.endpoints(ctx)
	if err != nil {
		return nil, err
	}

	options := []profile.Option{
		profile.WithEndpoints(endpoints),
		profile.WithFieldKeys(a.flow.FieldKeys()...),
		profile.WithLogger(a.logger),
	}
	if a.cfg.APIToken != "" {
		options = append(options, profile.WithTokenSource(profile.StaticToken(a.cfg.APIToken)))
	}
	return profile.New(a.cfg.APIURL, options...)
}

func (a *app) endpoints(ctx context.Context) (profile.Endpoints, error) {
	if a.cfg.OpenAPIPath == "" {
		return profile.DefaultEndpoints(ctx)
	}
	data, err := os.ReadFile(a.cfg.OpenAPIPath)
	if err != nil {
		return profile.Endpoints{}, fmt.Errorf("read openapi document: %w", err)
	}
	return profile.LoadEndpoints(ctx, data)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, drafts.ErrNotFound) {
		return nil
	}
	return err
}
