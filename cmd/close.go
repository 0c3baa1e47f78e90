package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/logger"
)

var closeCmd = &cobra.Command{
	Use:   "close <key>",
	Short: "Close the binary associated with a key",
	Long:  `Delete the session file. Fails if no file is open.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newStore(cfg).Delete(); err != nil {
			return err
		}
		logger.WithComponent("cmd").Debug("closed", "key", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}
