package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/decoder"
)

var assemblyCmd = &cobra.Command{
	Use:   "assembly <key>",
	Short: "Print the disassembly of key",
	Long:  `Decode the last opened file and print every decoded instruction, grouped by function, as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  queryCommand(decoder.Decoder.Assembly),
}

func init() {
	rootCmd.AddCommand(assemblyCmd)
}
