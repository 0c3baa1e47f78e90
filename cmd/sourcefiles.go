package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/decoder"
)

var sourcefilesCmd = &cobra.Command{
	Use:   "sourcefiles <key>",
	Short: "Print the list of sourcefiles of a key",
	Long:  `Decode the last opened file and print the source files named by its debug info as a JSON array.`,
	Args:  cobra.ExactArgs(1),
	RunE:  queryCommand(decoder.Decoder.SourceFiles),
}

func init() {
	rootCmd.AddCommand(sourcefilesCmd)
}
