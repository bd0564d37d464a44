package grid

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/qlearn/types"
)

func TestStepMovesAndClamps(t *testing.T) {
	env := NewEnvironment(3, 4)
	require.Equal(t, 0, env.Reset())

	result := env.Step(int(MovementDown))
	assert.Equal(t, env.State(Position{0, 0}), result.NextState)
	assert.Equal(t, float64(-1), result.Reward)
	assert.False(t, result.Done)

	result = env.Step(int(MovementUp))
	assert.Equal(t, env.State(Position{1, 0}), result.NextState)

	result = env.Step(int(MovementRight))
	assert.Equal(t, Position{1, 1}, env.Position(result.NextState))

	result = env.Step(int(NoMovement))
	assert.Equal(t, Position{1, 1}, env.CurPos)

	// unknown actions leave the agent in place
	result = env.Step(42)
	assert.Equal(t, Position{1, 1}, env.Position(result.NextState))
}

func TestStepReachesGoal(t *testing.T) {
	env := NewEnvironment(2, 2)
	env.Reset()

	env.Step(int(MovementUp))
	result := env.Step(int(MovementRight))
	assert.True(t, result.Done)
	assert.Equal(t, float64(10), result.Reward)
	assert.Equal(t, env.State(env.Goal), result.NextState)

	assert.Equal(t, 0, env.Reset())
	assert.Equal(t, env.Start, env.CurPos)
}

func TestIsActableMasksEdges(t *testing.T) {
	env := NewEnvironment(3, 3)

	tests := []struct {
		pos     Position
		actable []Movement
	}{
		{Position{0, 0}, []Movement{MovementUp, MovementRight, NoMovement}},
		{Position{1, 1}, AllMovements},
		{Position{2, 2}, []Movement{MovementDown, MovementLeft, NoMovement}},
		{Position{0, 2}, []Movement{MovementUp, MovementLeft, NoMovement}},
	}

	for _, tt := range tests {
		state := env.State(tt.pos)
		for _, m := range AllMovements {
			assert.Equal(t, contains(tt.actable, m), env.IsActable(state, int(m)), "position %s movement %s", tt.pos, m)
		}
		assert.False(t, env.IsActable(state, NumMovements))
	}
	assert.False(t, env.IsActable(-1, int(NoMovement)))
	assert.False(t, env.IsActable(env.NumStates(), int(NoMovement)))
}

func contains(ms []Movement, m Movement) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}

func TestAgentLearnsPathToGoal(t *testing.T) {
	env := NewEnvironment(3, 3)
	experiment := types.NewExperiment[int, int]("grid", func() *types.Agent[int, int] {
		return types.NewAgent[int, int](types.AgentConfig{
			NumStates:      env.NumStates(),
			NumActions:     NumMovements,
			Epsilon:        0.5,
			LearningRate:   0.5,
			DiscountFactor: 0.9,
			ExploreBound:   types.ExploreOverActions,
			Source:         types.NewSource(3),
		}, env)
	}, env, 0)
	visits := NewVisitAnalyzer(env)

	summary := experiment.Run(&types.RunConfig[int, int]{
		Episodes:     2000,
		Horizon:      50,
		EpsilonDecay: 0.995,
		Analyzers:    []types.Analyzer[int, int]{visits},
	})
	require.NoError(t, summary.Err)
	assert.Zero(t, summary.Errors)
	assert.Zero(t, summary.NoAction)

	agent := experiment.Agent()
	state := env.Reset()
	reached := false
	for step := 0; step < env.NumStates(); step++ {
		action, ok := agent.Greedy(state)
		require.True(t, ok)
		require.True(t, env.IsActable(state, action))
		result := env.Step(action)
		if result.Done {
			reached = true
			break
		}
		state = result.NextState
	}
	assert.True(t, reached)

	dataSet := visits.DataSet().(*VisitDataSet)
	assert.GreaterOrEqual(t, dataSet.Visits[0][0], 2000)
	assert.Positive(t, dataSet.Visits[2][2])
}

func TestVisitHeatMapComparator(t *testing.T) {
	env := NewEnvironment(2, 2)
	analyzer := NewVisitAnalyzer(env)

	eCtx := types.NewEpisodeContext[int, int](0, "grid", 0)
	env.Reset()
	eCtx.Trace.Append(0, int(MovementUp), env.Step(int(MovementUp)))
	eCtx.Trace.Append(2, int(MovementRight), env.Step(int(MovementRight)))
	analyzer.Analyze(0, eCtx)

	dataSet := analyzer.DataSet().(*VisitDataSet)
	assert.Equal(t, 1, dataSet.Visits[0][0])
	assert.Equal(t, 1, dataSet.Visits[1][0])
	assert.Equal(t, 1, dataSet.Visits[1][1])
	assert.Equal(t, float64(1), dataSet.Max())

	dir := t.TempDir()
	require.NoError(t, VisitHeatMapComparator(dir)(0, []string{"grid"}, []types.DataSet{dataSet}))
	assert.FileExists(t, filepath.Join(dir, "0_grid_visits.png"))

	analyzer.Reset()
	assert.Empty(t, analyzer.DataSet().(*VisitDataSet).Visits)
}
