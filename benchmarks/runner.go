package benchmarks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/zeu5/qlearn/types"
)

// agentFlags are the learning parameters shared by the subcommands
type agentFlags struct {
	epsilon        float64
	decay          float64
	alpha          float64
	gamma          float64
	exploreActions bool
}

func (f *agentFlags) register(cmd *cobra.Command, epsilon, decay float64) {
	cmd.PersistentFlags().Float64Var(&f.epsilon, "epsilon", epsilon, "Initial exploration rate")
	cmd.PersistentFlags().Float64Var(&f.decay, "decay", decay, "Epsilon is multiplied by this after every episode")
	cmd.PersistentFlags().Float64Var(&f.alpha, "alpha", 0.1, "Learning rate")
	cmd.PersistentFlags().Float64Var(&f.gamma, "gamma", 0.9, "Discount factor")
	cmd.PersistentFlags().BoolVar(&f.exploreActions, "explore-actions", false, "Draw exploratory actions from the action range instead of the state range")
}

// config builds the agent configuration and checks it along with the decay
func (f *agentFlags) config(numStates, numActions int) (types.AgentConfig, error) {
	bound := types.ExploreOverStates
	if f.exploreActions {
		bound = types.ExploreOverActions
	}
	config := types.AgentConfig{
		NumStates:      numStates,
		NumActions:     numActions,
		Epsilon:        f.epsilon,
		LearningRate:   f.alpha,
		DiscountFactor: f.gamma,
		ExploreBound:   bound,
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	if err := types.ValidateDecay(f.decay); err != nil {
		return config, fmt.Errorf("--decay: %w", err)
	}
	return config, nil
}

// agentConstructor builds a fresh agent for every run.
// With a seed, run i is seeded with seed+i
func agentConstructor[S, A types.Index](config types.AgentConfig, mask types.ActionMask[S, A], seed uint64) types.AgentConstructor[S, A] {
	run := uint64(0)
	return func() *types.Agent[S, A] {
		c := config
		if seed != 0 {
			c.Source = types.NewSource(seed + run)
		}
		run += 1
		return types.NewAgent[S, A](c, mask)
	}
}

// session holds what the comparisons of one command share
type session struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *types.Metrics
	status   *types.StatusBoard
}

func newSession() *session {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &session{
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		registry: registry,
		metrics:  types.NewMetrics(registry),
		status:   types.NewStatusBoard(),
	}
}

func (s *session) comparisonConfig(decay float64) *types.ComparisonConfig {
	return &types.ComparisonConfig{
		Runs:         runs,
		Episodes:     episodes,
		Horizon:      horizon,
		EpsilonDecay: decay,
		RecordPath:   saveFile,
		RecordTraces: recordTraces,

		Logger:  s.logger,
		Metrics: s.metrics,
		Status:  s.status,

		PrintProgress:     !quiet,
		ProgressFrequency: 500 * time.Millisecond,
	}
}

type comparison interface {
	Run(context.Context) error
}

// run executes the comparison until it completes or the process is interrupted
func (s *session) run(c comparison) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{})
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			s.logger.Warn("interrupted, stopping the experiments")
		case <-doneCh:
		}
		cancel()
	}()

	if metricsAddr != "" {
		server := NewServer(metricsAddr, NewRouter(s.registry, s.status), s.logger)
		server.Start()
		defer server.Stop()
	}

	stopProfiling, err := startProfiling()
	if err != nil {
		return err
	}
	defer stopProfiling()

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if quiet {
		for _, status := range s.status.Snapshot() {
			fmt.Println(status.String())
		}
	}
	return nil
}
