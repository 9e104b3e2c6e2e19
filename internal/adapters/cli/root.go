// Package cli is the eligibility command line: evaluate documents, explain features, recommend support.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

const app = "eligibility"

// Services are built lazily so that recommend runs without loading the model.
type Services struct {
	Evaluator            ports.Evaluator
	EvaluatorNoReasoning ports.Evaluator
	Advisor              ports.Advisor
	Close                func()
}

type ServicesFactory func(ctx context.Context, configFile string) (*Services, error)

type rootOptions struct {
	configFile string
	factory    ServicesFactory
}

func (o *rootOptions) services(ctx context.Context) (*Services, error) {
	services, err := o.factory(ctx, o.configFile)
	if err != nil {
		return nil, fmt.Errorf("init services: %w", err)
	}
	return services, nil
}

func NewRootCommand(factory ServicesFactory) *cobra.Command {
	opts := &rootOptions{factory: factory}

	root := &cobra.Command{
		Use:           app,
		Short:         "eligibility evaluates social support applications from applicant documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(
		newEvaluateCommand(opts),
		newExplainCommand(opts),
		newRecommendCommand(),
		newModelCommand(opts),
	)
	return root
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
