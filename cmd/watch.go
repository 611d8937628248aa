package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/file"
)

var watchDelay time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 200*time.Millisecond, "quiet time after the last change before re-rendering")
	watchCmd.Flags().BoolVar(&renderOptimize, "optimize", false, "merge chunks that continue each other")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <score>",
	Short: "Re-renders a score every time it is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watch(ctx, args[0], watchDelay, cmd.OutOrStdout())
	},
}

func renderFile(path string, out io.Writer) {
	score, err := file.LoadScore(path)
	if err != nil {
		log.Error("Could not load score", "path", path, "err", err)
		return
	}
	perf, err := Render(score)
	if err != nil {
		log.Error("Could not render score", "path", path, "err", err)
		return
	}
	if err := printPerformance(out, perf, renderOptimize, false); err != nil {
		log.Error("Could not print performance", "err", err)
	}
}

// watch prints a render of path and a fresh one each time the file has
// settled after a change. It returns when ctx is done, and nothing is
// written to out after that.
func watch(ctx context.Context, path string, delay time.Duration, out io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "Could not resolve score path")
	}
	if _, err := os.Stat(abs); err != nil {
		return errors.Wrap(err, "Could not stat score")
	}

	// the directory is watched since editors often replace the file
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "Could not create watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "Could not watch %s", filepath.Dir(abs))
	}

	var mu sync.Mutex
	stopped := false
	render := func() {
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			renderFile(abs, out)
		}
	}
	render()

	debounced := debounce.New(delay)
	defer func() {
		debounced(func() {})
		mu.Lock()
		stopped = true
		mu.Unlock()
	}()

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
			log.Debug("score changed", "path", abs, "op", ev.Op)
			debounced(render)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "path", abs, "err", err)
		}
	}
}
