package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/dataset"
	"github.com/rulebench/rulebench/internal/observability"
	"github.com/rulebench/rulebench/internal/prompt"
	"github.com/rulebench/rulebench/internal/scrape"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build QA datasets from scraped forum threads",
}

var datasetQACmd = &cobra.Command{
	Use:   "qa",
	Short: "Extract QA pairs from scraped threads",
	Long: `QA extraction sends each scraped thread to a model and keeps the
question/answer pairs it identifies. Threads the model cannot use are
skipped rather than failing the run.`,
	RunE: runDatasetQA,
}

var datasetDistractorsCmd = &cobra.Command{
	Use:   "distractors",
	Short: "Synthesize multiple-choice distractors for a QA dataset",
	Long: `Distractor synthesis generates plausible wrong answers for every QA
example using three strategies: unassisted, rulebook-grounded, and
forum-grounded. Forum grounding requires enough posts in the source
thread.`,
	RunE: runDatasetDistractors,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetQACmd)
	datasetCmd.AddCommand(datasetDistractorsCmd)

	datasetQACmd.Flags().String("in", "threads.json", "Grouped thread JSON from scrape")
	datasetQACmd.Flags().String("out", "qa_dataset.json", "Output path for QA examples")
	datasetQACmd.Flags().String("backend", "", "Backend model identity (defaults to config)")
	datasetQACmd.Flags().Int("max-examples", 0, "Max threads to process (defaults to config)")
	datasetQACmd.Flags().Bool("filter", false, "Keep only answered rules questions")

	datasetDistractorsCmd.Flags().String("in", "qa_dataset.json", "QA examples from dataset qa")
	datasetDistractorsCmd.Flags().String("rulebook", "", "Path to the game's rulebook text")
	datasetDistractorsCmd.Flags().String("out", "mcq_dataset.json", "Output path for MCQ examples")
	datasetDistractorsCmd.Flags().String("backend", "", "Backend model identity (defaults to config)")
	datasetDistractorsCmd.Flags().String("preamble", "", "Text prepended to every question (defaults to config)")
}

func runDatasetQA(cmd *cobra.Command, _ []string) error {
	inPath, err := cmd.Flags().GetString("in")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	maxExamples, err := cmd.Flags().GetInt("max-examples")
	if err != nil {
		return err
	}
	filter, err := cmd.Flags().GetBool("filter")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backend == "" {
		backend = cfg.Dataset.Backend
	}
	if maxExamples <= 0 {
		maxExamples = cfg.Dataset.MaxExamples
	}
	if !cmd.Flags().Changed("filter") {
		filter = cfg.Dataset.FilterRulesQuestions
	}

	grouped, err := scrape.ReadGrouped(inPath)
	if err != nil {
		return err
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

	builder := &dataset.QABuilder{
		Dispatcher:  dispatcher,
		Invoker:     invoker,
		Prompts:     prompts,
		Backend:     backend,
		MaxExamples: maxExamples,
		FilterRules: filter,
		Logger:      observability.Logger,
	}
	examples, err := builder.Build(ctx, grouped)
	if err != nil {
		return err
	}
	if err := dataset.WriteJSON(outPath, examples); err != nil {
		return err
	}

	observability.Logger.Info("qa extraction complete",
		zap.Int("examples", len(examples)),
		zap.String("backend", backend),
		zap.String("out", outPath))
	fmt.Printf("Wrote %d QA example(s) to %s\n", len(examples), outPath)
	return nil
}

func runDatasetDistractors(cmd *cobra.Command, _ []string) error {
	inPath, err := cmd.Flags().GetString("in")
	if err != nil {
		return err
	}
	rulebookPath, err := cmd.Flags().GetString("rulebook")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	preamble, err := cmd.Flags().GetString("preamble")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backend == "" {
		backend = cfg.Dataset.Backend
	}
	if preamble == "" {
		preamble = cfg.Dataset.GamePreamble
	}

	examples, err := dataset.ReadJSON[dataset.QAExample](inPath)
	if err != nil {
		return err
	}

	var rulebook string
	if rulebookPath != "" {
		raw, err := os.ReadFile(rulebookPath) // #nosec G304 -- operator-supplied path
		if err != nil {
			return fmt.Errorf("read rulebook %s: %w", rulebookPath, err)
		}
		rulebook = string(raw)
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

	builder := &dataset.DistractorBuilder{
		Dispatcher:    dispatcher,
		Invoker:       invoker,
		Prompts:       prompts,
		Backend:       backend,
		GamePreamble:  preamble,
		MinForumPosts: cfg.Dataset.MinForumPosts,
		Logger:        observability.Logger,
	}
	mcq, err := builder.Build(ctx, examples, rulebook)
	if err != nil {
		return err
	}
	if err := dataset.WriteJSON(outPath, mcq); err != nil {
		return err
	}

	observability.Logger.Info("distractor synthesis complete",
		zap.Int("examples", len(mcq)),
		zap.String("backend", backend),
		zap.String("out", outPath))
	fmt.Printf("Wrote %d MCQ example(s) to %s\n", len(mcq), outPath)
	return nil
}
