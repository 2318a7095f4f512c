// Package cmd wires the rulebench CLI: scraping BoardGameGeek rules
// forums, distilling them into a QA dataset, synthesizing distractors,
// evaluating models, and packaging benchmark artifacts.
package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/config"
	"github.com/rulebench/rulebench/internal/infer"
	"github.com/rulebench/rulebench/internal/llm"
	"github.com/rulebench/rulebench/internal/observability"
	"github.com/rulebench/rulebench/internal/store"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rulebench",
	Short: "Build and evaluate board-game rules QA benchmarks",
	Long: `rulebench turns BoardGameGeek rules-forum discussions into a
multiple-choice QA benchmark and evaluates language models against it.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml in the rulebench config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	observability.InitLogger(verbose)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir := config.DefaultConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		observability.Logger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		observability.Logger.Debug("No config file found, using defaults and environment variables")
	} else {
		observability.Logger.Warn("Error reading config file", zap.Error(err))
	}

	config.SetDefaults(viper.GetViper())
}

// loadConfig decodes the merged viper state.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore opens the libsql database named by the config.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	observability.Logger.Debug("store opened", zap.String("driver", st.Driver()))
	return st, nil
}

// buildDispatcher assembles the prompt dispatcher from the admission
// profiles in config. When st is non-nil, completions for the given
// backend are cached through it.
func buildDispatcher(cfg *config.Config, st *store.Store, backend string) (*infer.Dispatcher, error) {
	opts := []infer.Option{
		infer.WithLogger(observability.Logger),
		infer.WithFallback(cfg.Infer.Default),
	}
	if st != nil {
		opts = append(opts, infer.WithCache(st.ResponseCache(backend, cfg.Infer.CacheTTL)))
	}
	return infer.NewDispatcher(cfg.Infer.Profiles, opts...)
}

// buildInvoker resolves the backend to a provider-bound invoker.
func buildInvoker(cfg *config.Config, backend string) (*llm.Invoker, error) {
	return llm.NewRegistry(cfg.LLM).Invoker(backend)
}
