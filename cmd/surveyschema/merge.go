package main

import (
	"os"

	"github.com/spf13/cobra"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/fragment"
)

func newMergeCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "merge FILE FRAGMENT",
		Short: "Merge generated questions into a survey",
		Long: `Merge reads a generated JSON fragment ({"questions":[...]} or a bare list),
assigns fresh q<N> ids and places each question after the last question of
the same type. The result is printed in FILE's format.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, fragPath := args[0], args[1]
			format, err := opts.formatFor(path)
			if err != nil {
				return err
			}
			current, err := loadSchema(cmd, opts, path)
			if err != nil {
				return err
			}
			f, err := os.Open(fragPath)
			if err != nil {
				return err
			}
			defer f.Close()
			qs, err := fragment.Decode(f)
			if err != nil {
				return err
			}
			merged := fragment.Keep(&current, qs)
			out, err := surveyschema.Serialize(merged, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
