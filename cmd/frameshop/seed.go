package main

import (
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load products, frame options and blog posts from a YAML file",
	Long: `Loads catalog content into the configured storage. Records are upserted,
so the same file can be loaded again after editing prices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = st.Close()
		}()
		return seedStores(cmd.Context(), st, seedFile, logger)
	},
}
