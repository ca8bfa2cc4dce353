package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/i18n"
)

func newConvertCmd(opts *globalOptions) *cobra.Command {
	var to, output string
	cmd := &cobra.Command{
		Use:   "convert FILE --to FORMAT",
		Short: "Convert a survey between XML, JSON and YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			target, err := surveyschema.ParseFormat(to)
			if err != nil {
				return err
			}
			schema, err := loadSchema(cmd, opts, path)
			if err != nil {
				return err
			}
			out, err := surveyschema.Serialize(schema, target)
			if err != nil {
				return fmt.Errorf("serialize %s: %w", target, err)
			}
			return writeOutput(cmd, output, out)
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "target format (xml, json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// loadSchema reads and parses path. Diagnostics are rendered to stderr and
// reported as errInvalid.
func loadSchema(cmd *cobra.Command, opts *globalOptions, path string) (surveyschema.Schema, error) {
	r := validateFile(opts, path)
	if r.err != nil {
		return surveyschema.Schema{}, fmt.Errorf("%s: %s: %w", path, i18n.T("unreadable", nil), r.err)
	}
	if !r.res.OK() {
		renderResult(cmd.ErrOrStderr(), path, r.res)
		return surveyschema.Schema{}, errInvalid
	}
	return *r.res.Schema, nil
}

func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", pathColor.Sprint(path), i18n.T("written", nil))
	return nil
}
