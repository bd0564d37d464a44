package types

import (
	"fmt"
	"time"
)

// EpisodeContext stores the information used and returned by an episode
type EpisodeContext[S, A Index] struct {
	Episode        int
	ExperimentName string
	Run            int

	Trace       *Trace[S, A]
	Timesteps   int
	TotalReward float64
	RunDuration time.Duration
	Epsilon     float64 // exploration rate the episode was run with

	// possible outcomes of the episode
	Reached    bool // terminal transition
	NoAction   bool // no actable action in the current state
	HorizonEnd bool // horizon reached
	Err        error
}

func NewEpisodeContext[S, A Index](episode int, experimentName string, run int) *EpisodeContext[S, A] {
	return &EpisodeContext[S, A]{
		Episode:        episode,
		ExperimentName: experimentName,
		Run:            run,
		Trace:          NewTrace[S, A](),
	}
}

func (e *EpisodeContext[S, A]) SetError(err error) {
	e.Err = err
}

// Outcome is a short label for how the episode ended
func (e *EpisodeContext[S, A]) Outcome() string {
	switch {
	case e.Err != nil:
		return "error"
	case e.Reached:
		return "reached"
	case e.NoAction:
		return "no_action"
	case e.HorizonEnd:
		return "horizon"
	default:
		return "unknown"
	}
}

func (e *EpisodeContext[S, A]) String() string {
	return fmt.Sprintf("Exp:%s, Run:%d, Ep:%d, Steps:%d, Reward:%.2f, Outcome:%s",
		e.ExperimentName, e.Run, e.Episode, e.Timesteps, e.TotalReward, e.Outcome())
}
