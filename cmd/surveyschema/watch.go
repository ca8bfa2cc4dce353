package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/reoring/surveyschema/i18n"
)

const watchDebounce = 150 * time.Millisecond

func newWatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-validate a survey file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchFile(ctx, cmd.OutOrStdout(), opts, args[0])
		},
	}
}

// watchFile validates path once, then again after every write until ctx is
// done. The parent directory is watched so editors that replace the file on
// save keep being followed.
func watchFile(ctx context.Context, w io.Writer, opts *globalOptions, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := opts.formatFor(abs); err != nil {
		return err
	}
	logger := opts.logger(w)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	check := func() {
		r := validateFile(opts, abs)
		if r.err != nil {
			fmt.Fprintf(w, "%s: %s: %v\n", pathColor.Sprint(path), i18n.T("unreadable", nil), r.err)
			return
		}
		renderResult(w, path, r.res)
	}
	check()
	fmt.Fprintf(w, "%s: %s\n", pathColor.Sprint(path), i18n.T("watching", nil))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			check()
		}
	}
}
