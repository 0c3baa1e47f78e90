package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Prapti-044/simple-optparser/internal/config"
	"github.com/Prapti-044/simple-optparser/internal/logger"
	"github.com/Prapti-044/simple-optparser/internal/root"
	"github.com/Prapti-044/simple-optparser/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "optparser",
	Short: "OptParser binary parser for OptVis",
	Long: `optparser remembers the last opened executable or shared library and prints
its structural parse (JSON), control-flow graph (DOT), source file list or
disassembly on request.

  optparser open ./a.out
  optparser parse key > a.out.json
  optparser dot key | dot -Tsvg > a.out.svg
  optparser close key

The key argument of the query commands is accepted for compatibility and
ignored: every query answers for the file saved by the last open.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath  string
	sessionFile string
	functions   []string
	debug       bool

	// cfg is the effective configuration, set before any command runs.
	cfg = config.Default()
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: .optparser.yaml found above the working directory)")
	pf.StringVar(&sessionFile, "session-file", session.DefaultFileName, "File holding the last opened path")
	pf.StringSliceVar(&functions, "functions", nil, "Only decode functions matching these globs")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config file, lays explicitly set flags over it and
// configures logging.
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		found, err := root.FindConfig()
		if err != nil {
			return err
		}
		path = found
	} else if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), c)
	if err := c.Validate(); err != nil {
		return err
	}

	level, err := config.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.Init(cmd.ErrOrStderr(), level)
	if debug {
		logger.SetDebug(true)
	}
	if path != "" {
		logger.Get().Debug("loaded config", "path", path)
	}

	cfg = c
	return nil
}

func applyFlags(flags *pflag.FlagSet, c *config.Config) {
	if flags.Changed("session-file") {
		c.SessionFile = sessionFile
	}
	if flags.Changed("functions") {
		c.Functions = functions
	}
}
