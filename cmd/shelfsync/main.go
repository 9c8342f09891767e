// Command shelfsync keeps a local folder of markdown documents in sync
// with a remote shelf content store.
//
// Usage:
//
//	shelfsync sync     one bidirectional run (or SYNC_MODE)
//	shelfsync pull     one remote-to-local run
//	shelfsync push     one local-to-remote run
//	shelfsync daemon   periodic runs plus filesystem-triggered runs
//	shelfsync status   recent run history
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jbeckett/shelfsync/internal/config"
	"github.com/jbeckett/shelfsync/internal/engine"
	apperrors "github.com/jbeckett/shelfsync/internal/errors"
	"github.com/jbeckett/shelfsync/internal/logging"
	"github.com/jbeckett/shelfsync/internal/remote"
	"github.com/jbeckett/shelfsync/internal/state"
	"github.com/jbeckett/shelfsync/internal/textconv"
	"github.com/jbeckett/shelfsync/internal/tree"
)

var Version = "dev"

const statusRunCount = 10

func main() {
	cmd := "sync"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)

	appState, err := openState(cfg)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer appState.Close()

	if cmd == "status" {
		return printStatus(appState)
	}

	logger.Info("shelfsync starting",
		slog.String("version", Version),
		slog.String("command", cmd),
		slog.String("dir", cfg.SyncDir),
	)

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "sync":
		return runOnce(ctx, eng, appState, logger, engine.Mode(cfg.Mode))
	case "pull":
		return runOnce(ctx, eng, appState, logger, engine.ModePull)
	case "push":
		return runOnce(ctx, eng, appState, logger, engine.ModePush)
	case "daemon":
		return runDaemon(ctx, eng, appState, cfg, logger)
	default:
		return fmt.Errorf("unknown command %q (expected sync, pull, push, daemon, or status)", cmd)
	}
}

func openState(cfg *config.Config) (*state.State, error) {
	if cfg.StatePath != "" {
		return state.LoadAt(cfg.StatePath)
	}

	return state.Load()
}

func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	t, err := tree.New(cfg.SyncDir)
	if err != nil {
		return nil, fmt.Errorf("opening sync directory: %w", err)
	}

	notifier := engine.NewWriterNotifier(os.Stderr)

	var resolver engine.Resolver
	if cfg.ConflictPolicy == config.ConflictInteractive {
		resolver = engine.NewInteractive(os.Stdin, os.Stderr)
	} else {
		resolver = engine.NewPreserveLocal(notifier)
	}

	return engine.New(engine.Config{
		Tree:                 t,
		Store:                remote.NewClient(cfg.ShelfURL, cfg.TokenID, cfg.TokenSecret, nil),
		Converter:            textconv.New(),
		Conflicts:            resolver,
		Notifier:             notifier,
		Logger:               logger,
		MTimeBuffer:          cfg.MTimeBuffer,
		CreateSubCollections: cfg.CreateSubCollections,
		CollectionIDs:        cfg.CollectionIDs,
	}), nil
}

// runOnce executes a single run and records it in the run history.
func runOnce(ctx context.Context, eng *engine.Engine, appState *state.State, logger *slog.Logger, mode engine.Mode) error {
	started := time.Now()

	res, err := eng.Run(ctx, mode)

	record := state.RunRecord{
		Mode:       string(mode),
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
		Pulled:     res.Pulled,
		Pushed:     res.Pushed,
		Created:    res.Created,
		Skipped:    res.Skipped,
		Errors:     res.Errors,
		Failed:     err != nil,
	}

	if recErr := appState.AppendRun(record); recErr != nil {
		logger.Warn("recording run", slog.String("error", recErr.Error()))
	}

	return err
}

// runDaemon runs on an interval and whenever local edits settle. A run
// already in progress is skipped, not queued; the next trigger covers
// the missed work.
func runDaemon(ctx context.Context, eng *engine.Engine, appState *state.State, cfg *config.Config, logger *slog.Logger) error {
	trigger := make(chan struct{}, 1)

	requestRun := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	watcher := engine.NewWatcher(cfg.SyncDir, logger, requestRun)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Watch(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		// Initial run at startup, then on every tick or trigger.
		requestRun()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				requestRun()
			case <-trigger:
				err := runOnce(gctx, eng, appState, logger, engine.Mode(cfg.Mode))

				switch {
				case err == nil:
				case errors.Is(err, apperrors.ErrRunInProgress):
					logger.Debug("run already in progress, skipping trigger")
				case errors.Is(err, context.Canceled):
					return err
				default:
					logger.Error("run failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}

	return err
}

// printStatus prints the most recent run records, newest first.
func printStatus(appState *state.State) error {
	runs, err := appState.RecentRuns(statusRunCount)
	if err != nil {
		return fmt.Errorf("reading run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, r := range runs {
		status := "ok"
		if r.Failed {
			status = "failed"
		}

		fmt.Printf("%s  %-13s %-6s  pulled=%d pushed=%d created=%d skipped=%d errors=%d  (%dms)\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode, status,
			r.Pulled, r.Pushed, r.Created, r.Skipped, r.Errors,
			r.DurationMs,
		)
	}

	return nil
}
