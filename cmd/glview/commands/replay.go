package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"
	"golang.org/x/sync/errgroup"

	"github.com/agiangrant/glview"
)

// Script is a recorded sequence of host events.
type Script struct {
	// How long to wait for queued input to drain after the last event
	SettleMs int           `toml:"settle_ms"`
	Events   []ScriptEvent `toml:"event"`
}

// ScriptEvent is one step of a Script. Kind selects which fields apply:
//
//	size    width, height
//	visible, hidden, paint
//	touch   action (down, move, up, cancel), x, y, pointer
//	wait    ms
type ScriptEvent struct {
	Kind    string  `toml:"kind"`
	Width   int     `toml:"width"`
	Height  int     `toml:"height"`
	Action  string  `toml:"action"`
	X       float32 `toml:"x"`
	Y       float32 `toml:"y"`
	Pointer int     `toml:"pointer"`
	Ms      int     `toml:"ms"`
}

const defaultSettle = 2 * time.Second

// LoadScript reads and validates a replay script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var script Script
	if err := toml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &script, nil
}

// Validate checks every event for a known kind and action.
func (s *Script) Validate() error {
	for i, ev := range s.Events {
		switch ev.Kind {
		case "size", "visible", "hidden", "paint", "wait":
		case "touch":
			if _, ok := touchActions[ev.Action]; !ok {
				return fmt.Errorf("event %d: unknown touch action %q", i+1, ev.Action)
			}
		default:
			return fmt.Errorf("event %d: unknown kind %q", i+1, ev.Kind)
		}
	}
	return nil
}

var touchActions = map[string]glview.Action{
	"down":   glview.ActionDown,
	"move":   glview.ActionMove,
	"up":     glview.ActionUp,
	"cancel": glview.ActionCancel,
}

// Replay implements the 'glview replay' command
func Replay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to glview.toml")
	scriptPath := fs.String("script", "", "Replay script (TOML)")
	dryRun := fs.Bool("dry-run", false, "Log engine calls instead of loading the library")
	fs.Parse(args)

	if *scriptPath == "" {
		return fmt.Errorf("--script is required")
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, err := config.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	script, err := LoadScript(*scriptPath)
	if err != nil {
		return err
	}

	var engine glview.Engine
	if *dryRun {
		engine = logEngine{logger: logger}
	} else {
		native, err := glview.OpenEngine(config.Library)
		if err != nil {
			return err
		}
		defer native.Close()
		engine = native
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	view := glview.NewView(engine, glview.WithConfig(config), glview.WithLogger(logger))
	if err := RunScript(ctx, view, script, logger); err != nil {
		return err
	}
	fmt.Printf("✓ Replayed %d events in %d frames\n", len(script.Events), view.Surface().Frames())
	return nil
}

// RunScript drives view's render loop while feeding it the script's events,
// then stops the loop once queued input has drained.
func RunScript(ctx context.Context, view *glview.View, script *Script, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return view.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		for _, ev := range script.Events {
			if err := sendEvent(gctx, view, ev); err != nil {
				return err
			}
		}
		return settle(gctx, view, script.settle(), logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Script) settle() time.Duration {
	if s.SettleMs > 0 {
		return time.Duration(s.SettleMs) * time.Millisecond
	}
	return defaultSettle
}

func sendEvent(ctx context.Context, view *glview.View, ev ScriptEvent) error {
	switch ev.Kind {
	case "size":
		view.Send(size.Event{WidthPx: ev.Width, HeightPx: ev.Height})
	case "visible":
		view.Send(lifecycle.Event{From: lifecycle.StageAlive, To: lifecycle.StageVisible})
	case "hidden":
		view.Send(lifecycle.Event{From: lifecycle.StageVisible, To: lifecycle.StageAlive})
	case "paint":
		view.Send(paint.Event{})
	case "touch":
		action := touchActions[ev.Action]
		if action == glview.ActionCancel {
			view.Touch(glview.MotionEvent{Action: action, X: ev.X, Y: ev.Y, PointerID: ev.Pointer, Time: time.Now()})
			return nil
		}
		view.Send(touch.Event{X: ev.X, Y: ev.Y, Sequence: touch.Sequence(ev.Pointer), Type: touchType(action)})
	case "wait":
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(ev.Ms) * time.Millisecond):
		}
	}
	return nil
}

func touchType(a glview.Action) touch.Type {
	switch a {
	case glview.ActionDown:
		return touch.TypeBegin
	case glview.ActionUp:
		return touch.TypeEnd
	default:
		return touch.TypeMove
	}
}

// settle waits until the view has no queued input or the timeout passes.
func settle(ctx context.Context, view *glview.View, timeout time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for view.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			logger.Warn("queued input not drained; is the surface visible?", "pending", view.Pending())
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
