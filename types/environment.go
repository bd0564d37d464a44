package types

import "golang.org/x/exp/constraints"

// Index is the capability required of states and actions: totally ordered,
// comparable and enumerable from the zero value by successor.
// The agent assumes states are 0..NumStates-1 and actions 0..NumActions-1
type Index interface {
	constraints.Integer
}

// StepResult is the outcome of a single environment transition
type StepResult[S Index] struct {
	NextState S
	Reward    float64
	// Done marks the end of the episode
	Done bool
}

func NewStepResult[S Index](nextState S, reward float64, done bool) StepResult[S] {
	return StepResult[S]{
		NextState: nextState,
		Reward:    reward,
		Done:      done,
	}
}

// Environment the agent interacts with.
// Step must always return a result, invalid actions should be
// reflected in the reward or masked through the agent's ActionMask
type Environment[S, A Index] interface {
	Step(A) StepResult[S]
}

// EnvironmentFunc adapts a plain function to the Environment interface
type EnvironmentFunc[S, A Index] func(A) StepResult[S]

func (f EnvironmentFunc[S, A]) Step(a A) StepResult[S] {
	return f(a)
}

// Resetter is implemented by environments that keep their own position.
// When present, the driver calls Reset at the start of every episode
// to obtain the initial state
type Resetter[S Index] interface {
	Reset() S
}
