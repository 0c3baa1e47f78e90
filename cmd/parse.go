package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/decoder"
)

var parseCmd = &cobra.Command{
	Use:   "parse <key>",
	Short: "Print binary parse of key",
	Long:  `Decode the last opened file and print its structural parse as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  queryCommand(decoder.Decoder.JSON),
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
