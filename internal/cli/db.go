package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/finsent/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the article database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the news_articles and sentiment_analysis tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		cfg := s.cfg.Database
		cfg.Enabled = true

		st, err := store.Open(s.ctx, cfg, s.logger)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(s.ctx); err != nil {
			return err
		}
		fmt.Printf("✓ Schema ready (%s)\n", cfg.Driver)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	rootCmd.AddCommand(dbCmd)
}
