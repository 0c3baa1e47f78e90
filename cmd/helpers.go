package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Prapti-044/simple-optparser/internal/config"
	"github.com/Prapti-044/simple-optparser/internal/decoder"
	"github.com/Prapti-044/simple-optparser/internal/logger"
	"github.com/Prapti-044/simple-optparser/internal/session"
)

// Constructors for the session store and decoder. Tests swap these for
// in-memory doubles.
var (
	newStore = func(c *config.Config) session.Store {
		return session.NewFileStore(c.SessionFile)
	}
	newDecoder = func(c *config.Config) (decoder.Decoder, error) {
		return decoder.NewEngine(decoder.Options{
			Functions:     c.Functions,
			MaxNameLength: c.MaxNameLength,
		})
	}
)

// queryCommand builds the RunE of a command that decodes the last opened
// file and prints one representation of it. The key argument is logged
// and otherwise unused.
func queryCommand(query func(decoder.Decoder) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("cmd")

		path, err := newStore(cfg).Load()
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}
		dec, err := newDecoder(cfg)
		if err != nil {
			return err
		}

		log.Debug("query", "command", cmd.Name(), "key", args[0], "path", path)
		if err := dec.Decode(path); err != nil {
			return err
		}
		out, err := query(dec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
}
