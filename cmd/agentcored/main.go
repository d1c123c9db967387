// Command agentcored is the process entrypoint: it binds configuration,
// wires the Tool Dispatcher and Hook Pipeline into an agent.Runtime (no
// Evaluation Engine is attached), and, when -thread is given, runs one
// demonstration turn and exits. An interrupt or termination signal
// cancels that turn's context.
//
// Follows a cmd/demo-style bootstrap shape (flag parsing ->
// context-scoped logger -> service wiring -> signal-driven shutdown),
// trimmed of the generated transport layer since wire boundaries are
// out of scope for this module.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentcore/runtime/agent"
	"github.com/agentcore/runtime/config"
	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
	"github.com/agentcore/runtime/tools"
)

func main() {
	var (
		configPathF = flag.String("config", "", "path to the runtime YAML config file (defaults unset)")
		threadIDF = flag.String("thread", "", "thread_id for the single demonstration turn this process runs")
		inputF = flag.String("input", "", "user text for the single demonstration turn this process runs")
	)
	flag.Parse()

	logger := telemetry.NewNoopLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPathF, *threadIDF, *inputF); err != nil {
		fmt.Fprintln(os.Stderr, "agentcored:", err)
		os.Exit(1)
	}
}

// run wires the process's collaborators and drives exactly one turn (or,
// with ThreadID unset, exits immediately after wiring) — this module's
// scope stops at the Agent Execution Core; a real deployment's reply
// channel/search provider/sandbox decide how turns actually arrive.
func run(ctx context.Context, logger telemetry.Logger, configPath, threadID, input string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	if err := registerBuiltins(registry, cfg); err != nil {
		return err
	}
	dispatcher := tools.NewDispatcher(registry, tools.WithLogger(logger))

	pipeline := hooks.NewPipeline(hooks.WithLogger(logger))

	rt, err := agent.NewRuntime(hooks.React, registry, dispatcher, pipeline, stubModelHandler, agent.WithLogger(logger))
	if err != nil {
		return err
	}

	if threadID == "" {
		logger.Info(ctx, "agentcored: wired, no demonstration turn requested (pass -thread and -input)")
		return nil
	}

	out, err := rt.Invoke(ctx, agent.TurnInput{ThreadID: threadID, UserText: input})
	if err != nil {
		return err
	}
	msgs, _ := out.Get(state.KeyMessages)
	logger.Info(ctx, "agentcored: turn complete", "thread_id", threadID, "messages", msgs)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		c := &config.Config{}
		c.SetDefaults()
		return c, nil
	}
	return config.Load(path)
}

// registerBuiltins registers the tools this process can resolve without
// an external SPI. reply/search/notification/subscribe_trigger and the
// write_code/execute_code pair need a ReplyChannel/SearchProvider/
// CodeGen Sub-Agent/Sandbox the process owner supplies, so they are left
// for that wiring; only a liveness tool is registered here.
func registerBuiltins(registry *tools.Registry, cfg *config.Config) error {
	_ = cfg
	return registry.Register(tools.Registration{
		Tool: tools.Tool{
			Name: "ping",
			Description: "liveness check tool used to confirm the dispatcher is wired",
		},
		Handler: func(_ *tools.ExecutionContext, _ map[string]any) (any, error) {
			return "pong", nil
		},
	})
}

// stubModelHandler stands in for the out-of-scope concrete LLM transport:
// it never calls a real model, it only lets the graph complete so this
// entrypoint can demonstrate wiring end to end.
func stubModelHandler(_ context.Context, req *hooks.ModelRequest) (*hooks.ModelResponse, error) {
	return &hooks.ModelResponse{Message: state.NewAssistantMessage("stub: no model transport configured")}, nil
}
