package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/nonsend/internal/config"
	"github.com/l1jgo/nonsend/internal/core/ecs"
	"github.com/l1jgo/nonsend/internal/core/event"
	"github.com/l1jgo/nonsend/internal/core/mainthread"
	"github.com/l1jgo/nonsend/internal/core/nonsend"
	coresys "github.com/l1jgo/nonsend/internal/core/system"
	"github.com/l1jgo/nonsend/internal/data"
	"github.com/l1jgo/nonsend/internal/scripting"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Keep main on the process main thread so the loop below owns it.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", max(3, 44-len(title))))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := flag.String("config", os.Getenv("NONSEND_CONFIG"), "path to TOML config")
	flag.Parse()

	cfg := config.Defaults()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	// 2. Init logger
	log, err := cfg.Logging.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. World, queue, owner loop
	bus := event.NewBus()
	world := ecs.NewWorld(ecs.WithLogger(log), ecs.WithObserver(event.WorldObserver{Bus: bus}))
	commands := ecs.NewCommands()
	runner := coresys.NewRunner(commands, log)
	loop := mainthread.New(cfg.Loop.CallQueue, log)
	if err := loop.Bind(world); err != nil {
		return err
	}

	ecs.InsertResource(world, Settings{TickRate: cfg.Loop.TickRate})
	event.Subscribe(bus, func(ev event.ResourceInserted) {
		log.Info("resource inserted", zap.String("type", ev.Type), zap.Bool("non_send", ev.NonSend))
	})
	event.Subscribe(bus, func(ev event.ResourceRemoved) {
		log.Info("resource removed", zap.String("type", ev.Type), zap.Bool("non_send", ev.NonSend))
	})

	kinds := nonsend.NewKinds()
	registerKinds(kinds)

	printSection("bootstrap")

	// 4. Default non-send resources, then the plan on top
	nonsend.Init[FrameCounter](commands)
	nonsend.Init[Surface](commands)

	if cfg.Bootstrap.PlanPath != "" {
		plan, err := data.LoadPlan(cfg.Bootstrap.PlanPath)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		if err := plan.Enqueue(kinds, commands); err != nil {
			for _, e := range multierr.Errors(err) {
				log.Warn("bootstrap step skipped", zap.Error(e))
			}
		}
		printOK(fmt.Sprintf("plan %s: %d steps", cfg.Bootstrap.PlanPath, len(plan.Steps)))
	}

	// 5. Scripts
	if cfg.Scripting.Enabled {
		engine := scripting.NewEngine(kinds, commands, log)
		defer engine.Close()
		if err := engine.LoadDir(cfg.Scripting.ScriptsDir); err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		if err := engine.CallHook("on_start"); err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		runner.Register(scripting.NewHookSystem(engine))
		printOK("lua scripts loaded from " + cfg.Scripting.ScriptsDir)
	}

	// 6. Systems
	runner.Register(coresys.NewEventSystem(bus))
	runner.Register(coresys.Func{At: coresys.PhaseUpdate, Fn: countFrames})
	runner.Register(coresys.NewCleanupSystem())
	printOK(fmt.Sprintf("%d kinds: %s", len(kinds.Names()), strings.Join(kinds.Names(), ", ")))
	fmt.Println()

	// 7. Drive ticks from a ticker goroutine, execute them on the main thread
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go drive(ctx, loop, runner, cfg.Loop, log)

	log.Info("loop started", zap.Duration("tick", cfg.Loop.TickRate))
	err = loop.Run(ctx)

	if st, ok := ecs.GetResource[Stats](world); ok {
		log.Info("loop stopped", zap.Int("frames", st.Frames), zap.Int("ticks", st.Ticks))
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func drive(ctx context.Context, loop *mainthread.Loop, runner *coresys.Runner, cfg config.LoopConfig, log *zap.Logger) {
	defer loop.Close()

	ticker := time.NewTicker(cfg.TickRate)
	defer ticker.Stop()

	for ticks := 0; cfg.MaxTicks == 0 || ticks < cfg.MaxTicks; ticks++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loop.Call(ctx, func(o *ecs.Owner) { runner.Tick(o, cfg.TickRate) }); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error("tick failed", zap.Error(err))
				}
				return
			}
		}
	}
}
