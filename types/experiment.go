package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/zeu5/qlearn/util"
)

var (
	ErrEpisodePanicked = errors.New("episode panicked")
	ErrTooManyErrors   = errors.New("too many consecutive episode errors")
)

// RunConfig is the execution configuration of a single experiment run
type RunConfig[S, A Index] struct {
	CurrentRun int
	Episodes   int
	Horizon    int
	// multiplied into the agent's epsilon after every episode, 1 keeps it constant.
	// Left at 0 it is treated as unset and defaults to 1, a comparison
	// always sets it explicitly
	EpsilonDecay float64
	Analyzers    []Analyzer[S, A]
	Context      context.Context

	// threshold to abort the experiment
	ConsecutiveErrorsAbort int

	RecordTraces   bool
	ReportSavePath string

	Logger  *slog.Logger
	Metrics *Metrics
	Status  *StatusBoard
}

func (r *RunConfig[S, A]) setDefaults() {
	if r.Context == nil {
		r.Context = context.Background()
	}
	if r.EpsilonDecay == 0 {
		r.EpsilonDecay = 1
	}
	if r.ConsecutiveErrorsAbort == 0 {
		r.ConsecutiveErrorsAbort = 10
	}
	if r.Logger == nil {
		r.Logger = discardLogger()
	}
}

// ValidateDecay checks that the epsilon decay is in (0, 1]
func ValidateDecay(decay float64) error {
	if math.IsNaN(decay) || decay <= 0 || decay > 1 {
		return fmt.Errorf("%w: epsilon decay must be in (0, 1], got %v", ErrInvalidConfig, decay)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// AgentConstructor creates a fresh agent for every run
type AgentConstructor[S, A Index] func() *Agent[S, A]

// Experiment pairs an agent configuration with an environment
type Experiment[S, A Index] struct {
	Name        string
	newAgent    AgentConstructor[S, A]
	environment Environment[S, A]
	startState  S

	agent *Agent[S, A]
}

// NewExperiment creates a new experiment instance.
// Episodes start from startState unless the environment implements Resetter
func NewExperiment[S, A Index](name string, newAgent AgentConstructor[S, A], environment Environment[S, A], startState S) *Experiment[S, A] {
	return &Experiment[S, A]{
		Name:        name,
		newAgent:    newAgent,
		environment: environment,
		startState:  startState,
	}
}

// Agent returns the agent of the latest run, nil before the first run
func (e *Experiment[S, A]) Agent() *Agent[S, A] {
	return e.agent
}

// ExperimentSummary counts the episode outcomes of a run
type ExperimentSummary struct {
	Name       string `json:"name"`
	Run        int    `json:"run"`
	Episodes   int    `json:"episodes"`
	Timesteps  int    `json:"timesteps"`
	Reached    int    `json:"reached"`
	NoAction   int    `json:"no_action"`
	HorizonEnd int    `json:"horizon"`
	Errors     int    `json:"errors"`
	Cancelled  bool   `json:"cancelled"`
	Err        error  `json:"-"`
}

func (s *ExperimentSummary) add(outcome string, timesteps int) {
	s.Episodes += 1
	s.Timesteps += timesteps
	switch outcome {
	case "reached":
		s.Reached += 1
	case "no_action":
		s.NoAction += 1
	case "horizon":
		s.HorizonEnd += 1
	case "error":
		s.Errors += 1
	}
}

func (e *Experiment[S, A]) recordTrace(rConfig *RunConfig[S, A], eCtx *EpisodeContext[S, A]) error {
	tracesFile := path.Join(rConfig.ReportSavePath, "traces", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".jsonl")
	bs, err := json.Marshal(eCtx.Trace.Record(eCtx.Episode))
	if err != nil {
		return fmt.Errorf("marshalling trace: %w", err)
	}
	return util.AppendToFile(tracesFile, string(bs))
}

// Run the experiment for the specified number of episodes with a fresh agent.
// The agent's epsilon is decayed after every episode
func (e *Experiment[S, A]) Run(rConfig *RunConfig[S, A]) *ExperimentSummary {
	rConfig.setDefaults()
	logger := rConfig.Logger.With("experiment", e.Name, "run", rConfig.CurrentRun)
	summary := &ExperimentSummary{Name: e.Name, Run: rConfig.CurrentRun}
	if err := ValidateDecay(rConfig.EpsilonDecay); err != nil {
		summary.Err = err
		return summary
	}

	select {
	case <-rConfig.Context.Done():
		summary.Cancelled = true
		return summary
	default:
	}

	if rConfig.RecordTraces {
		if err := util.EnsureDir(path.Join(rConfig.ReportSavePath, "traces")); err != nil {
			logger.Warn("disabling trace recording", "error", err)
			rConfig.RecordTraces = false
		}
	}

	agent := e.newAgent()
	e.agent = agent
	logger.Info("starting experiment", "episodes", rConfig.Episodes, "horizon", rConfig.Horizon, "epsilon", agent.Epsilon)

	status := ExperimentStatus{
		Experiment: e.Name,
		Run:        rConfig.CurrentRun,
		Episodes:   rConfig.Episodes,
		Running:    true,
	}
	consecutiveErrors := 0

	for episode := 0; episode < rConfig.Episodes; episode++ {
		select {
		case <-rConfig.Context.Done():
			summary.Cancelled = true
			logger.Info("experiment cancelled", "episode", episode)
		default:
		}
		if summary.Cancelled {
			break
		}

		eCtx := NewEpisodeContext[S, A](episode, e.Name, rConfig.CurrentRun)
		e.runEpisode(eCtx, agent, rConfig.Horizon)
		summary.add(eCtx.Outcome(), eCtx.Timesteps)

		if eCtx.Err != nil {
			consecutiveErrors += 1
			logger.Warn("episode failed", "episode", episode, "error", eCtx.Err)
		} else {
			consecutiveErrors = 0
		}

		if rConfig.RecordTraces {
			if err := e.recordTrace(rConfig, eCtx); err != nil {
				logger.Warn("recording trace", "episode", episode, "error", err)
			}
		}

		// analyze the trace, even if the episode ended with an error
		for _, a := range rConfig.Analyzers {
			a.Analyze(rConfig.CurrentRun, eCtx)
		}
		observeEpisode(rConfig.Metrics, e.Name, eCtx)

		agent.Epsilon *= rConfig.EpsilonDecay

		updateStatus(&status, eCtx, agent.Epsilon)
		rConfig.Status.Set(status)

		if consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			summary.Err = fmt.Errorf("%w: %d in experiment %s", ErrTooManyErrors, consecutiveErrors, e.Name)
			logger.Error("aborting experiment", "consecutive_errors", consecutiveErrors)
			break
		}
	}

	status.Running = false
	rConfig.Status.Set(status)
	logger.Info("experiment finished",
		"episodes", summary.Episodes,
		"reached", summary.Reached,
		"no_action", summary.NoAction,
		"horizon", summary.HorizonEnd,
		"errors", summary.Errors,
	)
	return summary
}

func (e *Experiment[S, A]) runEpisode(eCtx *EpisodeContext[S, A], agent *Agent[S, A], horizon int) {
	start := time.Now()
	defer func() {
		eCtx.RunDuration = time.Since(start)
		if r := recover(); r != nil {
			eCtx.SetError(fmt.Errorf("%w: %v", ErrEpisodePanicked, r))
		}
	}()

	eCtx.Epsilon = agent.Epsilon
	state := e.startState
	if r, ok := e.environment.(Resetter[S]); ok {
		state = r.Reset()
	}

	for i := 0; i < horizon; i++ {
		action, ok := agent.ChooseAction(state)
		if !ok {
			eCtx.NoAction = true
			return
		}
		result := e.environment.Step(action)
		agent.Learn(state, action, result.NextState, result.Reward)

		eCtx.Trace.Append(state, action, result)
		eCtx.Timesteps += 1
		eCtx.TotalReward += result.Reward
		if result.Done {
			eCtx.Reached = true
			return
		}
		state = result.NextState
	}
	eCtx.HorizonEnd = true
}

// Reset drops the agent of the latest run
func (e *Experiment[S, A]) Reset() {
	e.agent = nil
}

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the episodes to a DataSet
type Analyzer[S, A Index] interface {
	// Run, episode
	Analyze(int, *EpisodeContext[S, A])
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet) error

func NoopComparator() Comparator {
	return func(int, []string, []DataSet) error { return nil }
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs         int     // number of runs
	Episodes     int     // number of episodes
	Horizon      int     // number of steps
	EpsilonDecay float64 // per episode multiplicative decay of epsilon, in (0, 1]

	RecordPath   string // path to store the results
	RecordTraces bool

	// threshold to abort an experiment
	ConsecutiveErrorsAbort int

	Logger  *slog.Logger
	Metrics *Metrics
	Status  *StatusBoard

	// live terminal output
	PrintProgress     bool
	ProgressFrequency time.Duration
	ProgressOut       io.Writer
}

// Comparison contains the different experiments to compare
// The episodes obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison[S, A Index] struct {
	Experiments []*Experiment[S, A]
	Summaries   []*ExperimentSummary
	analyzers   map[string]Analyzer[S, A]
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance, the record path is emptied
func NewComparison[S, A Index](config *ComparisonConfig) (*Comparison[S, A], error) {
	if err := ValidateDecay(config.EpsilonDecay); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = discardLogger()
	}
	if config.Status == nil {
		config.Status = NewStatusBoard()
	}
	if config.RecordPath != "" {
		if _, err := os.Stat(config.RecordPath); err == nil {
			if err := RemoveContents(config.RecordPath); err != nil {
				return nil, fmt.Errorf("cleaning record path: %w", err)
			}
		}
		if err := util.EnsureDir(config.RecordPath); err != nil {
			return nil, err
		}
	} else if config.RecordTraces {
		return nil, errors.New("recording traces requires a record path")
	}

	return &Comparison[S, A]{
		Experiments: make([]*Experiment[S, A], 0),
		Summaries:   make([]*ExperimentSummary, 0),
		analyzers:   make(map[string]Analyzer[S, A]),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}, nil
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison[S, A]) AddAnalysis(name string, analyzer Analyzer[S, A], comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison[S, A]) AddExperiment(e *Experiment[S, A]) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison[S, A]) recordConfig() error {
	cfg := c.cConfig
	if cfg.RecordPath == "" {
		return nil
	}

	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["epsilon_decay"] = cfg.EpsilonDecay
	out["record_traces"] = cfg.RecordTraces

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return util.WriteToFile(path.Join(cfg.RecordPath, "comparison_config.json"), string(bs))
}

// Run the comparison
func (c *Comparison[S, A]) Run(ctx context.Context) error {
	if err := c.recordConfig(); err != nil {
		return fmt.Errorf("recording comparison config: %w", err)
	}

	if c.cConfig.PrintProgress {
		printer := NewTerminalPrinter(ctx, c.cConfig.Status, c.cConfig.ProgressOut, c.cConfig.ProgressFrequency)
		printer.Start()
		defer printer.Stop()
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		c.cConfig.Logger.Info("starting run", "run", run+1, "of", c.cConfig.Runs)
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			summary := e.Run(c.prepareRunConfig(ctx, run))
			c.Summaries = append(c.Summaries, summary)
			if summary.Err != nil {
				return fmt.Errorf("experiment %s: %w", e.Name, summary.Err)
			}
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
			e.Reset()
		}
		for name, comp := range c.comparators {
			if err := comp(run, names, datasets[name]); err != nil {
				return fmt.Errorf("comparator %s: %w", name, err)
			}
		}
	}
	return nil
}

// prepare the run configuration for the experiment
func (c *Comparison[S, A]) prepareRunConfig(ctx context.Context, run int) *RunConfig[S, A] {
	rCfg := &RunConfig[S, A]{
		CurrentRun:             run,
		Episodes:               c.cConfig.Episodes,
		Horizon:                c.cConfig.Horizon,
		EpsilonDecay:           c.cConfig.EpsilonDecay,
		Analyzers:              make([]Analyzer[S, A], 0),
		Context:                ctx,
		ConsecutiveErrorsAbort: c.cConfig.ConsecutiveErrorsAbort,
		RecordTraces:           c.cConfig.RecordTraces,
		ReportSavePath:         c.cConfig.RecordPath,
		Logger:                 c.cConfig.Logger,
		Metrics:                c.cConfig.Metrics,
		Status:                 c.cConfig.Status,
	}
	for _, a := range c.analyzers {
		rCfg.Analyzers = append(rCfg.Analyzers, a)
	}
	return rCfg
}

// Delete everything in the directory
func RemoveContents(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	names, err := d.Readdirnames(-1)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.RemoveAll(path.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
