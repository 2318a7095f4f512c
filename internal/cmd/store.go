package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local store",
}

var storePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cached model responses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() // nolint:errcheck

		removed, err := st.PruneExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired cache entr(ies)\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storePruneCmd)
}
