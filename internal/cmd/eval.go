package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/dataset"
	"github.com/rulebench/rulebench/internal/eval"
	"github.com/rulebench/rulebench/internal/observability"
	"github.com/rulebench/rulebench/internal/output"
	"github.com/rulebench/rulebench/internal/prompt"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate models against an MCQ dataset",
}

var evalRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every (context, question, distractor type) combination",
	Long: `Run shuffles each question's answer options with a fixed seed, asks
the model to pick one under every configured reference context, and
scores the predictions per distractor type.`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.AddCommand(evalRunCmd)

	evalRunCmd.Flags().String("questions", "mcq_dataset.json", "MCQ examples from dataset distractors")
	evalRunCmd.Flags().String("contexts", "", "Context configuration JSON (omit for a single no-reference context)")
	evalRunCmd.Flags().String("results", "", "Write grouped per-question results to this path")
	evalRunCmd.Flags().String("report", "", "Write the accuracy report JSON to this path")
	evalRunCmd.Flags().String("output", "table", "Report format: table, json, markdown")
	evalRunCmd.Flags().String("backend", "", "Backend model identity (defaults to config)")
	evalRunCmd.Flags().Int64("seed", 0, "Shuffle seed (defaults to config)")
}

func runEval(cmd *cobra.Command, _ []string) error {
	questionsPath, err := cmd.Flags().GetString("questions")
	if err != nil {
		return err
	}
	contextsPath, err := cmd.Flags().GetString("contexts")
	if err != nil {
		return err
	}
	resultsPath, err := cmd.Flags().GetString("results")
	if err != nil {
		return err
	}
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	seed, err := cmd.Flags().GetInt64("seed")
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backend == "" {
		backend = cfg.Eval.Backend
	}
	if !cmd.Flags().Changed("seed") {
		seed = cfg.Eval.Seed
	}

	questions, err := dataset.ReadJSON[dataset.MCQExample](questionsPath)
	if err != nil {
		return err
	}

	contexts := []eval.Context{{Name: "no_context"}}
	if contextsPath != "" {
		configs, err := eval.LoadContextConfigs(contextsPath)
		if err != nil {
			return err
		}
		contexts = contexts[:0]
		for _, c := range configs {
			contexts = append(contexts, eval.ResolveContext(c))
		}
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() // nolint:errcheck

	dispatcher, err := buildDispatcher(cfg, st, backend)
	if err != nil {
		return err
	}
	invoker, err := buildInvoker(cfg, backend)
	if err != nil {
		return err
	}
	prompts, err := prompt.DefaultRegistry()
	if err != nil {
		return err
	}

	harness := &eval.Harness{
		Dispatcher: dispatcher,
		Invoker:    invoker,
		Prompts:    prompts,
		Backend:    backend,
		Seed:       seed,
		Logger:     observability.Logger,
	}
	results, err := harness.Run(ctx, contexts, questions)
	if err != nil {
		return err
	}

	report := eval.BuildReport(results)
	if resultsPath != "" {
		if err := eval.WriteResults(resultsPath, results); err != nil {
			return err
		}
	}
	if reportPath != "" {
		if err := eval.WriteReport(reportPath, report); err != nil {
			return err
		}
	}

	rendered, err := output.NewFormatter(format).FormatReport(report)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	observability.Logger.Info("evaluation complete",
		zap.Int("results", len(results)),
		zap.String("backend", backend),
		zap.Int64("seed", seed))
	return nil
}
