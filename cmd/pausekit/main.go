// Command pausekit runs one interactive pause against the controlling
// terminal and prints the structured result as JSON. It is the standalone
// host for the pause provider; workflow engines embed the provider directly
// instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/runweave/pausekit/internal/config"
	"github.com/runweave/pausekit/internal/logging"
	"github.com/runweave/pausekit/internal/monitoring"
	"github.com/runweave/pausekit/internal/providers/pause"
	"github.com/runweave/pausekit/internal/service"
	"github.com/runweave/pausekit/internal/types"
)

func main() {
	cfg := config.LoadOrDefault()

	prompt := flag.String("prompt", "", "Text to use for the prompt message")
	seconds := flag.Int("seconds", 0, "Number of seconds to pause for")
	timeoutAnswer := flag.String("timeout-answer", "", "Answer substituted when the timeout fires")
	echo := flag.Bool("echo", true, "Show typed characters")
	taskName := flag.String("task-name", "pause", "Task display name used in the prompt header")
	terminalPath := flag.String("terminal", cfg.Terminal.Path, "Controlling terminal device")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging (colored console output)")
	flag.Parse()

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: *dev,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Stdin may be a pipe when pausekit itself is scripted; the operator's
	// keystrokes come from the controlling terminal instead.
	in, out := os.Stdin, os.Stdout
	if tty, terr := os.OpenFile(*terminalPath, os.O_RDWR, 0); terr == nil {
		defer tty.Close()
		in, out = tty, tty
	} else {
		log.Warn("controlling terminal unavailable, falling back to stdio",
			zap.String("path", *terminalPath),
			zap.Error(terr),
		)
	}

	metrics := monitoring.NewMetrics()
	if !cfg.Metrics.Enabled {
		metrics = monitoring.NewNop()
	}

	opts := []pause.Option{
		pause.WithStreams(in, out),
		pause.WithLogger(log),
		pause.WithMetrics(metrics),
	}

	registry := service.NewRegistry()
	if err := registry.Register(pause.NewProvider(opts...)); err != nil {
		log.Fatal("failed to register pause provider", zap.Error(err))
	}

	// Only options the caller actually set become part of the raw mapping,
	// so absent and default-valued flags stay distinguishable.
	params := map[string]interface{}{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "prompt":
			params["prompt"] = *prompt
		case "seconds":
			params["seconds"] = *seconds
		case "timeout-answer":
			params["timeout_answer"] = *timeoutAnswer
		case "echo":
			params["echo"] = *echo
		}
	})

	runCtx := &types.Context{TaskName: taskName}
	result, err := registry.Execute(context.Background(), "pause.run", params, runCtx)
	if err != nil {
		if errors.Is(err, pause.ErrUserAbort) {
			log.Error("run aborted by user")
			os.Exit(2)
		}
		log.Error("pause failed", zap.Error(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Error("failed to encode result", zap.Error(err))
		os.Exit(1)
	}
}
