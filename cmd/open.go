package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/logger"
)

var openCmd = &cobra.Command{
	Use:   "open <filepath>",
	Short: "Open executable file or shared library",
	Long: `Save filepath as the current session. The file is not checked until a
query command decodes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newStore(cfg).Save(args[0]); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		logger.WithComponent("cmd").Debug("opened", "path", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
