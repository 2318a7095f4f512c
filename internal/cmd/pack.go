package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulebench/rulebench/internal/observability"
	"github.com/rulebench/rulebench/internal/pack"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Package handcrafted benchmark examples for distribution",
}

var packTSVCmd = &cobra.Command{
	Use:   "tsv <input-dir> <output-tsv>",
	Short: "Aggregate example JSON files into a TSV with inlined images",
	Long: `Each example's board image is downloaded, optionally resized, and
inlined into the TSV as a base64 PNG. An md5sum-style sidecar is
written next to the TSV.`,
	Args: cobra.ExactArgs(2),
	RunE: runPackTSV,
}

var packCasesCmd = &cobra.Command{
	Use:   "cases <input-json> <output-dir>",
	Short: "Split a test-case array into per-case JSON files",
	Args:  cobra.ExactArgs(2),
	RunE:  runPackCases,
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.AddCommand(packTSVCmd)
	packCmd.AddCommand(packCasesCmd)

	packTSVCmd.Flags().String("split", "train", "Value for the split column")
	packTSVCmd.Flags().String("dump-dir", "", "Save each PNG to this directory (default: <output>_images)")
	packTSVCmd.Flags().String("md5-out", "", "Checksum sidecar path (default: <output>.md5)")
	packTSVCmd.Flags().Int("resize", -1, "Resize PNGs so the longest side is this many pixels; 0 disables (defaults to config)")
}

func runPackTSV(cmd *cobra.Command, args []string) error {
	inputDir, outPath := args[0], args[1]

	split, err := cmd.Flags().GetString("split")
	if err != nil {
		return err
	}
	dumpDir, err := cmd.Flags().GetString("dump-dir")
	if err != nil {
		return err
	}
	md5Out, err := cmd.Flags().GetString("md5-out")
	if err != nil {
		return err
	}
	resize, err := cmd.Flags().GetInt("resize")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("resize") {
		resize = cfg.Pack.MaxImageDim
	}
	if dumpDir == "" {
		dumpDir = pack.DefaultDumpDir(outPath)
	}
	if md5Out == "" {
		md5Out = pack.DefaultMD5Path(outPath)
	}

	examples, err := pack.GatherExamples(inputDir, observability.Logger)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		fmt.Println("No valid JSON files found, nothing to do.")
		return nil
	}

	builder := pack.NewTSVBuilder(cfg.Pack.Timeout, resize)
	builder.Logger = observability.Logger
	written, err := builder.BuildTSV(cmd.Context(), examples, outPath, split, dumpDir)
	if err != nil {
		return err
	}
	if err := pack.WriteMD5(outPath, md5Out); err != nil {
		return err
	}

	fmt.Printf("Wrote %d example(s) to %s\n", written, outPath)
	fmt.Printf("PNG dumps saved to %s\n", dumpDir)
	fmt.Printf("MD5 hash written to %s\n", md5Out)
	return nil
}

func runPackCases(cmd *cobra.Command, args []string) error {
	inputPath, outputDir := args[0], args[1]

	written, err := pack.SplitCases(inputPath, outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d case file(s) to %s\n", written, outputDir)
	return nil
}
