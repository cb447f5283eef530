package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gbxstrip/internal/config"
	"gbxstrip/internal/logging"
	"gbxstrip/internal/pipeline"
)

type rootState struct {
	helpRequested bool
}

func usageText() string {
	return `Usage: gbxstrip <input> <output> [note] [options]

Removes the embedded validation replay from a .Map.Gbx track file, records
a removal summary in the map's script metadata, and logs reproducible
artifact copies under the processed root.

Positional arguments after <output> are joined into the note appended to
the map comments.

Options:
  --return-map <dir>     copy the cleaned map into <dir>
  --return-ghost <dir>   copy the extracted ghost into <dir>
  --return-replay <dir>  request the replay (always reported unavailable)
  --config <file>        configuration file (TOML)
  --log-level <level>    debug, info, warn, error
  --log-format <format>  console, json
  --json                 machine-readable run report on stdout
  --help                 show this text

Environment: TM_NOTE, TM_ADD_NOTE, TM_META_KEY, TM_PROCESSED_ROOT,
GBXLZO_PATH, GBXSTRIP_CONFIG.
`
}

func newRootCommand() (*cobra.Command, *rootState) {
	state := &rootState{}
	var (
		returnMapDir    string
		returnGhostDir  string
		returnReplayDir string
		configPath      string
		logLevel        string
		logFormat       string
		jsonReport      bool
	)

	cmd := &cobra.Command{
		Use:           "gbxstrip <input> <output> [note...]",
		Short:         "Strip the validation replay from a Gbx track file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("%w: input and output paths are required", pipeline.ErrUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.TrimSpace(args[0])
			output := strings.TrimSpace(args[1])
			if input == "" || output == "" {
				return fmt.Errorf("%w: input and output paths must not be empty", pipeline.ErrUsage)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrUsage, err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}

			logger, err := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrUsage, err)
			}

			opts := pipeline.Options{
				InputPath:       input,
				OutputPath:      output,
				Note:            strings.Join(args[2:], " "),
				ReturnMapDir:    strings.TrimSpace(returnMapDir),
				ReturnGhostDir:  strings.TrimSpace(returnGhostDir),
				ReturnReplayDir: strings.TrimSpace(returnReplayDir),
			}

			report, err := pipeline.Run(cmd.Context(), cfg, opts, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printReport(out, report, jsonReport, out == os.Stdout && stdoutIsTerminal())
		},
	}

	cmd.Flags().StringVar(&returnMapDir, "return-map", "", "directory to copy the cleaned map into")
	cmd.Flags().StringVar(&returnGhostDir, "return-ghost", "", "directory to copy the extracted ghost into")
	cmd.Flags().StringVar(&returnReplayDir, "return-replay", "", "directory to copy the replay into (unavailable)")
	cmd.Flags().StringVar(&configPath, "config", "", "configuration file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "emit the run report as JSON")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", pipeline.ErrUsage, err)
	})
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		state.helpRequested = true
		fmt.Fprint(c.OutOrStdout(), usageText())
	})

	return cmd, state
}
