package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/i18n"
)

type fileResult struct {
	path string
	res  surveyschema.ParseResult
	err  error
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check survey files and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := validateFiles(cmd, opts, args, jobs)
			out := cmd.OutOrStdout()
			failed := false
			for _, r := range results {
				if r.err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %v\n", pathColor.Sprint(r.path), i18n.T("unreadable", nil), r.err)
					failed = true
					continue
				}
				renderResult(out, r.path, r.res)
				failed = failed || !r.res.OK()
			}
			if failed {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files to validate in parallel")
	return cmd
}

// validateFiles parses every path concurrently. Results keep argument order.
func validateFiles(cmd *cobra.Command, opts *globalOptions, paths []string, jobs int) []fileResult {
	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateFile(opts, path)
			return nil
		})
	}
	// Per-file failures are recorded in results; only cancellation surfaces here.
	if err := g.Wait(); err != nil {
		for i := range results {
			if results[i].path == "" {
				results[i] = fileResult{path: paths[i], err: err}
			}
		}
	}
	return results
}

func validateFile(opts *globalOptions, path string) fileResult {
	r := fileResult{path: path}
	format, err := opts.formatFor(path)
	if err != nil {
		r.err = err
		return r
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.err = err
		return r
	}
	r.res = surveyschema.ParseSurvey(string(data), format, opts.parseOpt())
	return r
}
