package types

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var ErrInvalidConfig = errors.New("invalid agent configuration")

// ExploreBound selects the range of the random draw in the exploration branch
type ExploreBound int

const (
	// ExploreOverStates draws the action index from [0, NumStates), the default.
	// The table then keeps max(NumStates, NumActions) columns so that explored
	// actions beyond NumActions can be learned. Greedy choices only ever
	// consider [0, NumActions)
	ExploreOverStates ExploreBound = iota
	// ExploreOverActions draws the action index from [0, NumActions)
	ExploreOverActions
)

func (b ExploreBound) String() string {
	switch b {
	case ExploreOverActions:
		return "actions"
	default:
		return "states"
	}
}

type AgentConfig struct {
	NumStates  int
	NumActions int
	// initial exploration rate, the agent exposes it as a mutable field
	Epsilon        float64
	LearningRate   float64
	DiscountFactor float64

	ExploreBound ExploreBound
	// Source of randomness, when nil a self reseeding source is used
	Source rand.Source
}

// Validate checks the preconditions of NewAgent
func (c AgentConfig) Validate() error {
	if c.NumStates < 1 {
		return fmt.Errorf("%w: number of states must be at least 1, got %d", ErrInvalidConfig, c.NumStates)
	}
	if c.NumActions < 1 {
		return fmt.Errorf("%w: number of actions must be at least 1, got %d", ErrInvalidConfig, c.NumActions)
	}
	if math.IsNaN(c.Epsilon) || c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon must be in [0, 1], got %v", ErrInvalidConfig, c.Epsilon)
	}
	if math.IsNaN(c.LearningRate) || c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("%w: learning rate must be in (0, 1], got %v", ErrInvalidConfig, c.LearningRate)
	}
	if math.IsNaN(c.DiscountFactor) || c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return fmt.Errorf("%w: discount factor must be in [0, 1], got %v", ErrInvalidConfig, c.DiscountFactor)
	}
	return nil
}

// ActionMask decides which actions can be taken from a state
type ActionMask[S, A Index] interface {
	IsActable(S, A) bool
}

// ActionMaskFunc adapts a plain function to the ActionMask interface
type ActionMaskFunc[S, A Index] func(S, A) bool

func (f ActionMaskFunc[S, A]) IsActable(s S, a A) bool {
	return f(s, a)
}

// AllActable allows every action from every state
type AllActable[S, A Index] struct{}

func (AllActable[S, A]) IsActable(S, A) bool {
	return true
}

// Agent learns a state-action value table with the Q-learning update
// and acts epsilon-greedily on it.
//
// An Agent is not safe for concurrent use.
type Agent[S, A Index] struct {
	// Epsilon is the exploration rate. The agent never changes it,
	// decaying it between episodes is up to the caller
	Epsilon float64

	numStates  int
	numActions int
	// columns of the table, the range accepted by Learn and Value
	columns int
	alpha   float64
	gamma   float64
	bound   ExploreBound

	qTable *mat.Dense
	mask   ActionMask[S, A]
	src    rand.Source
	rand   *rand.Rand
}

// NewAgent creates an agent with every table entry set to 0.
// A nil mask makes every action actable.
// Panics if the configuration is invalid
func NewAgent[S, A Index](config AgentConfig, mask ActionMask[S, A]) *Agent[S, A] {
	if err := config.Validate(); err != nil {
		panic(err)
	}
	if mask == nil {
		mask = AllActable[S, A]{}
	}
	src := config.Source
	if src == nil {
		src = newReseedingSource(reseedInterval)
	}

	columns := config.NumActions
	if config.ExploreBound == ExploreOverStates && config.NumStates > columns {
		columns = config.NumStates
	}

	a := &Agent[S, A]{
		Epsilon:    config.Epsilon,
		numStates:  config.NumStates,
		numActions: config.NumActions,
		columns:    columns,
		alpha:      config.LearningRate,
		gamma:      config.DiscountFactor,
		bound:      config.ExploreBound,
		qTable:     mat.NewDense(config.NumStates, columns, nil),
		mask:       mask,
		src:        src,
		rand:       rand.New(src),
	}

	// enumerate from the zero value by successor
	var state S
	for i := 0; i < a.numStates; i++ {
		var action A
		for j := 0; j < a.columns; j++ {
			a.qTable.Set(int(state), int(action), 0)
			action++
		}
		state++
	}
	return a
}

func (a *Agent[S, A]) NumStates() int {
	return a.numStates
}

func (a *Agent[S, A]) NumActions() int {
	return a.numActions
}

// IsActable reports whether action can be taken from state
func (a *Agent[S, A]) IsActable(state S, action A) bool {
	return a.mask.IsActable(state, action)
}

// ChooseAction picks an action for the state following the epsilon-greedy policy.
// Returns false when no action is actable from the state
func (a *Agent[S, A]) ChooseAction(state S) (A, bool) {
	a.checkState(state)

	if a.rand.Float64() < a.Epsilon {
		action := a.explore()
		if a.IsActable(state, action) {
			return action, true
		}
	}
	return a.Greedy(state)
}

func (a *Agent[S, A]) explore() A {
	n := a.numStates
	if a.bound == ExploreOverActions {
		n = a.numActions
	}
	return A(a.rand.Intn(n))
}

// Greedy returns one of the actable actions with the highest value,
// ties are broken uniformly at random
func (a *Agent[S, A]) Greedy(state S) (A, bool) {
	a.checkState(state)

	best := make([]A, 0)
	bestVal := math.Inf(-1)
	var action A
	for j := 0; j < a.numActions; j++ {
		if a.IsActable(state, action) {
			val := a.qTable.At(int(state), j)
			if val > bestVal {
				bestVal = val
				best = best[:0]
				best = append(best, action)
			} else if val == bestVal {
				best = append(best, action)
			}
		}
		action++
	}
	if len(best) == 0 {
		var zero A
		return zero, false
	}
	return uniformPick(a.src, best), true
}

// Learn applies the Q-learning update for the transition
//
//	Q(s,a) <- Q(s,a) + alpha * (reward + gamma * maxNext - Q(s,a))
//
// maxNext is the highest value among the actable actions of nextState
// and never goes below 0.
func (a *Agent[S, A]) Learn(state S, action A, nextState S, reward float64) {
	a.checkState(state)
	a.checkAction(action)

	maxNext := a.maxActable(nextState)
	curVal := a.qTable.At(int(state), int(action))
	newVal := curVal + a.alpha*(reward+a.gamma*maxNext-curVal)
	a.qTable.Set(int(state), int(action), newVal)
}

func (a *Agent[S, A]) maxActable(state S) float64 {
	a.checkState(state)

	max := float64(0)
	var action A
	for j := 0; j < a.numActions; j++ {
		if a.IsActable(state, action) {
			if val := a.qTable.At(int(state), j); val > max {
				max = val
			}
		}
		action++
	}
	return max
}

// Value returns the current estimate for the state-action pair
func (a *Agent[S, A]) Value(state S, action A) float64 {
	a.checkState(state)
	a.checkAction(action)
	return a.qTable.At(int(state), int(action))
}

// MaxValue returns the highest value among the actable actions of the state,
// -Inf if none is actable
func (a *Agent[S, A]) MaxValue(state S) float64 {
	a.checkState(state)

	max := math.Inf(-1)
	var action A
	for j := 0; j < a.numActions; j++ {
		if a.IsActable(state, action) {
			if val := a.qTable.At(int(state), j); val > max {
				max = val
			}
		}
		action++
	}
	return max
}

// Table returns a copy of the value table restricted to [0, NumActions),
// rows are states and columns actions
func (a *Agent[S, A]) Table() *mat.Dense {
	return mat.DenseCopyOf(a.qTable.Slice(0, a.numStates, 0, a.numActions))
}

func (a *Agent[S, A]) checkState(state S) {
	if int(state) < 0 || int(state) >= a.numStates {
		panic(fmt.Sprintf("state %d out of range [0, %d)", int(state), a.numStates))
	}
}

func (a *Agent[S, A]) checkAction(action A) {
	if int(action) < 0 || int(action) >= a.columns {
		panic(fmt.Sprintf("action %d out of range [0, %d)", int(action), a.columns))
	}
}
