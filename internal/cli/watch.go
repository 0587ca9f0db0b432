package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/mark3labs/hto/internal/emitter"
	"github.com/mark3labs/hto/internal/spec"
)

// WatchConfig captures the options for the watch command.
type WatchConfig struct {
	Debounce time.Duration
	// Load resolves the generate config; it runs again before every
	// generation so config file edits take effect.
	Load func() (*GenerateConfig, error)
	// OnResult, when set, observes the outcome of every run that was not
	// superseded.
	OnResult func(*emitter.Result, error)
}

var watchRunner = runWatch

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the document whenever the type graph or config changes",
		Long: "Run generate once, then again whenever the type graph file or the config file changes. " +
			"A run superseded by a newer change is cancelled and its result discarded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			debounce, err := cmd.Flags().GetDuration("debounce")
			if err != nil {
				return err
			}
			if debounce < 0 {
				return newUsageError("watch: --debounce must not be negative")
			}
			return watchRunner(cmd.Context(), &WatchConfig{
				Debounce: debounce,
				Load:     func() (*GenerateConfig, error) { return resolveGenerateConfig(cmd) },
			})
		},
	}
	addGenerateFlags(cmd.Flags())
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "Quiet period after a change before regenerating")
	return cmd
}

type watchRun struct {
	seq int
	cfg *GenerateConfig
	res *emitter.Result
	err error
}

func runWatch(ctx context.Context, wc *WatchConfig) error {
	cfg, err := wc.Load()
	if err != nil {
		return err
	}
	ctx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	dirs := map[string]struct{}{}
	targets, err := rewatch(fw, dirs, cfg)
	if err != nil {
		return err
	}
	logger.Info("watching " + strings.Join(sortedKeys(targets), ", "))

	var (
		seq       int
		cancelRun context.CancelFunc = func() {}
		prevDone                     = make(chan struct{})
		results                      = make(chan watchRun)
		debounce  <-chan time.Time
		timer     *time.Timer
	)
	close(prevDone)

	start := func() {
		cancelRun()
		seq++
		runCtx, cancel := context.WithCancel(ctx)
		cancelRun = cancel
		id, wait, done := seq, prevDone, make(chan struct{})
		prevDone = done
		go func() {
			defer close(done)
			// Runs never overlap, so a superseded run cannot write after a
			// newer one.
			<-wait
			run := watchRun{seq: id}
			if run.cfg, run.err = wc.Load(); run.err == nil {
				if run.err = runCtx.Err(); run.err == nil {
					run.res, run.err = generate(runCtx, run.cfg)
				}
			}
			select {
			case results <- run:
			case <-ctx.Done():
			}
		}()
	}
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		cancelLoop()
		<-prevDone
	}

	start()
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				stop()
				return nil
			}
			if _, hit := targets[filepath.Clean(ev.Name)]; !hit || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Verbose("change detected: " + ev.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(wc.Debounce)
			debounce = timer.C

		case <-debounce:
			debounce = nil
			start()

		case err, ok := <-fw.Errors:
			if !ok {
				stop()
				return nil
			}
			logger.Error("watch: " + err.Error())

		case run := <-results:
			if run.seq != seq || errors.Is(run.err, context.Canceled) {
				logger.Verbose(fmt.Sprintf("discarded superseded run %d", run.seq))
				continue
			}
			if run.cfg != nil {
				// A config edit may point at a different app file.
				next, err := rewatch(fw, dirs, run.cfg)
				switch {
				case err != nil:
					logger.Error(err.Error())
				case !equalKeys(next, targets):
					targets = next
					logger.Info("watching " + strings.Join(sortedKeys(targets), ", "))
				}
			}
			if run.err != nil {
				logger.Error(spec.Describe(run.err))
			} else {
				report(run.cfg, run.res)
			}
			if wc.OnResult != nil {
				wc.OnResult(run.res, run.err)
			}
		}
	}
}

// watchTargets returns the absolute paths whose changes trigger a run.
func watchTargets(cfg *GenerateConfig) (map[string]struct{}, error) {
	targets := map[string]struct{}{}
	for _, p := range []string{cfg.AppFile, cfg.ConfigPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		targets[filepath.Clean(abs)] = struct{}{}
	}
	return targets, nil
}

// rewatch points fw at the directories holding cfg's targets and stops
// watching directories that no longer hold one. Directories are watched so
// that editors replacing a file by rename keep producing events.
func rewatch(fw *fsnotify.Watcher, dirs map[string]struct{}, cfg *GenerateConfig) (map[string]struct{}, error) {
	targets, err := watchTargets(cfg)
	if err != nil {
		return nil, err
	}
	want := map[string]struct{}{}
	for path := range targets {
		want[filepath.Dir(path)] = struct{}{}
	}
	for dir := range want {
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return nil, usagef("watch: cannot watch %s: %v", dir, err)
		}
		dirs[dir] = struct{}{}
	}
	for dir := range dirs {
		if _, ok := want[dir]; !ok {
			_ = fw.Remove(dir)
			delete(dirs, dir)
		}
	}
	return targets, nil
}

func equalKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
