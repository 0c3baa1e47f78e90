package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/decoder"
)

var dotCmd = &cobra.Command{
	Use:   "dot <key>",
	Short: "Print the control-flow graph of key",
	Long:  `Decode the last opened file and print its control-flow graph in DOT.`,
	Args:  cobra.ExactArgs(1),
	RunE:  queryCommand(decoder.Decoder.DOT),
}

func init() {
	rootCmd.AddCommand(dotCmd)
}
