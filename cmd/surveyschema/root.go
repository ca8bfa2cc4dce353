package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/i18n"
	"github.com/reoring/surveyschema/internal/config"
)

// errInvalid reports that at least one input had diagnostics. They have
// already been printed, so main only sets the exit status.
var errInvalid = errors.New("invalid survey")

type globalOptions struct {
	lang     string
	logLevel string
	format   string
	strict   bool
	noColor  bool
	maxBytes int64
}

func (o *globalOptions) parseOpt() surveyschema.ParseOpt {
	return surveyschema.ParseOpt{Strict: o.strict, MaxBytes: o.maxBytes}
}

// formatFor resolves the --format flag, falling back to the file extension.
func (o *globalOptions) formatFor(path string) (surveyschema.Format, error) {
	if o.format != "" {
		return surveyschema.ParseFormat(o.format)
	}
	f, err := surveyschema.FormatFromPath(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: use --format", path, i18n.T("unsupported", nil))
	}
	return f, nil
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	return config.LogConfig{Level: o.logLevel, Format: "text"}.NewLogger(w)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "surveyschema",
		Short:         "Validate, convert and merge survey definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			i18n.SetLanguage(opts.lang)
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.lang, "lang", "en", "message language (en, ja)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.format, "format", "f", "", "input format (xml, json, yaml); defaults to the file extension")
	pf.BoolVar(&opts.strict, "strict", false, "validate JSON/YAML structure, duplicate keys and unknown fields")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	pf.Int64Var(&opts.maxBytes, "max-bytes", 0, "reject inputs larger than this many bytes (0 = unlimited)")

	root.AddCommand(
		newValidateCmd(opts),
		newConvertCmd(opts),
		newMergeCmd(opts),
		newWatchCmd(opts),
		newSchemaCmd(),
		newServeCmd(opts),
	)
	return root
}
