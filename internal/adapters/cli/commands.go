package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/eligibility"
)

func newEvaluateCommand(opts *rootOptions) *cobra.Command {
	var (
		docs        domain.DocumentSet
		userID      string
		noReasoning bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the full pipeline on local documents and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close()

			evaluator := services.Evaluator
			if noReasoning {
				evaluator = services.EvaluatorNoReasoning
			}
			result, err := evaluator.Evaluate(cmd.Context(), userID, docs)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&docs.Assets, "assets", "", "assets and liabilities spreadsheet (.xlsx)")
	cmd.Flags().StringVar(&docs.BankStatement, "bank", "", "bank statement (.pdf)")
	cmd.Flags().StringVar(&docs.IDCard, "id", "", "identity document image, or a .txt transcript")
	cmd.Flags().StringVar(&docs.Resume, "resume", "", "resume (.docx)")
	cmd.Flags().StringVar(&userID, "user-id", "", "applicant id; generated when empty")
	cmd.Flags().BoolVar(&noReasoning, "no-reasoning", false, "skip the reasoning provider")
	return cmd
}

func newExplainCommand(opts *rootOptions) *cobra.Command {
	var (
		fv  = domain.DefaultFeatureVector()
		age int
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain the model's view of a feature vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fv.EmploymentYears < 0 {
				return fmt.Errorf("--employment-years must not be negative")
			}
			if fv.FamilySize < 1 {
				return fmt.Errorf("--family-size must be at least 1")
			}
			if age >= 0 {
				fv.Age = domain.KnownAge(age)
			}

			services, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close()

			report, err := services.Advisor.Explain(cmd.Context(), fv)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().Int64Var(&fv.Income, "income", 0, "monthly income in AED")
	cmd.Flags().IntVar(&fv.EmploymentYears, "employment-years", 0, "years of experience")
	cmd.Flags().IntVar(&age, "age", -1, "age in years; negative means unknown")
	cmd.Flags().Int64Var(&fv.NetWorth, "net-worth", 0, "sum of asset values in AED")
	cmd.Flags().IntVar(&fv.FamilySize, "family-size", domain.DefaultFamilySize, "household size")
	return cmd
}

func newRecommendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <decision>",
		Short: "Print support recommendations for a decision text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, rec := range eligibility.Recommend(strings.Join(args, " ")) {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newModelCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Print the loaded model version and feature importances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close()
			return printJSON(cmd.OutOrStdout(), services.Advisor.ModelInfo())
		},
	}
}
