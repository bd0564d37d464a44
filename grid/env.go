package grid

import (
	"fmt"

	"github.com/zeu5/qlearn/types"
)

type Movement int

const (
	MovementUp Movement = iota
	MovementDown
	MovementLeft
	MovementRight
	NoMovement
)

// NumMovements is the size of the action space
const NumMovements = 5

var AllMovements = []Movement{
	MovementUp,
	MovementDown,
	MovementLeft,
	MovementRight,
	NoMovement,
}

func (m Movement) String() string {
	switch m {
	case MovementUp:
		return "Up"
	case MovementDown:
		return "Down"
	case MovementLeft:
		return "Left"
	case MovementRight:
		return "Right"
	case NoMovement:
		return "Nothing"
	default:
		return fmt.Sprintf("Movement(%d)", int(m))
	}
}

type Position struct {
	I int
	J int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.I, p.J)
}

// Environment is a Height x Width grid where the agent walks from Start to Goal.
// States are cells numbered row by row, actions are Movements
type Environment struct {
	Height int
	Width  int
	Start  Position
	Goal   Position

	StepReward float64 // reward of every move that does not reach the goal
	GoalReward float64

	CurPos Position
}

var _ types.Environment[int, int] = &Environment{}
var _ types.Resetter[int] = &Environment{}
var _ types.ActionMask[int, int] = &Environment{}

// NewEnvironment creates a grid with the goal in the opposite corner of the start
func NewEnvironment(height, width int) *Environment {
	return &Environment{
		Height:     height,
		Width:      width,
		Start:      Position{0, 0},
		Goal:       Position{height - 1, width - 1},
		StepReward: -1,
		GoalReward: 10,
		CurPos:     Position{0, 0},
	}
}

func (g *Environment) NumStates() int {
	return g.Height * g.Width
}

func (g *Environment) State(p Position) int {
	return p.I*g.Width + p.J
}

func (g *Environment) Position(state int) Position {
	return Position{I: state / g.Width, J: state % g.Width}
}

func (g *Environment) Reset() int {
	g.CurPos = g.Start
	return g.State(g.CurPos)
}

func (g *Environment) Step(action int) types.StepResult[int] {
	newPos := g.move(g.CurPos, Movement(action))
	g.CurPos = newPos
	if newPos == g.Goal {
		return types.NewStepResult(g.State(newPos), g.GoalReward, true)
	}
	return types.NewStepResult(g.State(newPos), g.StepReward, false)
}

// move applies the movement, staying inside the grid
func (g *Environment) move(pos Position, m Movement) Position {
	newPos := pos
	switch m {
	case MovementUp:
		newPos.I = min(g.Height-1, pos.I+1)
	case MovementDown:
		newPos.I = max(0, pos.I-1)
	case MovementLeft:
		newPos.J = max(0, pos.J-1)
	case MovementRight:
		newPos.J = min(g.Width-1, pos.J+1)
	}
	return newPos
}

// IsActable masks the movements that would leave the grid
func (g *Environment) IsActable(state, action int) bool {
	if state < 0 || state >= g.NumStates() {
		return false
	}
	p := g.Position(state)
	switch Movement(action) {
	case MovementUp:
		return p.I < g.Height-1
	case MovementDown:
		return p.I > 0
	case MovementLeft:
		return p.J > 0
	case MovementRight:
		return p.J < g.Width-1
	case NoMovement:
		return true
	default:
		return false
	}
}
