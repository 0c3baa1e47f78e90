package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/logger"
)

var keepaliveCmd = &cobra.Command{
	Use:   "keepalive <key>",
	Short: "Keep the server associated with the key alive",
	Long:  `Accepted for compatibility with clients that ping a long-running parser. Does nothing.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.WithComponent("cmd").Debug("keepalive", "key", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keepaliveCmd)
}
