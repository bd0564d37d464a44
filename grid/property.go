package grid

import (
	"strconv"

	"github.com/zeu5/qlearn/types"
)

// InPosition holds on the transitions that end in cell (i, j)
func InPosition(env *Environment, i, j int) types.MonitorCondition[int, int] {
	target := env.State(Position{I: i, J: j})
	return func(_ int, _ int, next int) bool {
		return next == target
	}
}

// PosReached is satisfied once the agent enters cell (i, j)
func PosReached(env *Environment, i, j int) *types.Monitor[int, int] {
	monitor := types.NewMonitor[int, int]()
	builder := monitor.Build()
	builder.On(InPosition(env, i, j), "PositionReached").MarkSuccess()
	return monitor
}

// PathThrough is satisfied when the agent visits the cells in order
func PathThrough(env *Environment, cells ...Position) *types.Monitor[int, int] {
	monitor := types.NewMonitor[int, int]()
	builder := monitor.Build()
	for k, c := range cells {
		builder = builder.On(InPosition(env, c.I, c.J), "Cell"+strconv.Itoa(k))
	}
	builder.MarkSuccess()
	return monitor
}
