package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(numStates, numActions int, epsilon float64) AgentConfig {
	return AgentConfig{
		NumStates:      numStates,
		NumActions:     numActions,
		Epsilon:        epsilon,
		LearningRate:   0.5,
		DiscountFactor: 0.9,
		Source:         NewSource(1),
	}
}

func TestNewAgentTableIsZero(t *testing.T) {
	agent := NewAgent[int, uint8](testConfig(6, 4, 0.1), nil)

	require.Equal(t, 6, agent.NumStates())
	require.Equal(t, 4, agent.NumActions())
	for s := 0; s < 6; s++ {
		for a := uint8(0); a < 4; a++ {
			assert.Equal(t, float64(0), agent.Value(s, a))
		}
	}
	r, c := agent.Table().Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 4, c)
}

func TestAgentConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AgentConfig)
		valid  bool
	}{
		{"valid", func(c *AgentConfig) {}, true},
		{"zero epsilon", func(c *AgentConfig) { c.Epsilon = 0 }, true},
		{"full exploration", func(c *AgentConfig) { c.Epsilon = 1 }, true},
		{"no states", func(c *AgentConfig) { c.NumStates = 0 }, false},
		{"no actions", func(c *AgentConfig) { c.NumActions = -1 }, false},
		{"negative epsilon", func(c *AgentConfig) { c.Epsilon = -0.1 }, false},
		{"epsilon above one", func(c *AgentConfig) { c.Epsilon = 1.5 }, false},
		{"zero learning rate", func(c *AgentConfig) { c.LearningRate = 0 }, false},
		{"nan learning rate", func(c *AgentConfig) { c.LearningRate = math.NaN() }, false},
		{"discount above one", func(c *AgentConfig) { c.DiscountFactor = 1.1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(3, 3, 0.2)
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Panics(t, func() { NewAgent[int, int](cfg, nil) })
		})
	}
}

func TestChooseActionExploitsBestAction(t *testing.T) {
	agent := NewAgent[int, int](testConfig(2, 4, 0), nil)
	agent.Learn(0, 1, 1, 10)
	agent.Learn(0, 0, 1, -10)

	for i := 0; i < 1000; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		require.Equal(t, 1, action)
	}
}

func TestChooseActionBreaksTiesUniformly(t *testing.T) {
	agent := NewAgent[int, int](testConfig(2, 4, 0), nil)
	agent.Learn(0, 1, 1, 10)
	agent.Learn(0, 3, 1, 10)
	agent.Learn(0, 0, 1, -10)
	require.Equal(t, agent.Value(0, 1), agent.Value(0, 3))

	counts := make(map[int]int)
	trials := 10000
	for i := 0; i < trials; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		counts[action] += 1
	}
	require.Len(t, counts, 2)
	assert.InDelta(t, trials/2, counts[1], float64(trials)/20)
	assert.InDelta(t, trials/2, counts[3], float64(trials)/20)
}

// The exploration branch draws the action index from the number of states,
// so with more states than actions it returns indices past the table.
func TestChooseActionExploresOverStates(t *testing.T) {
	agent := NewAgent[int, int](testConfig(8, 4, 1), nil)

	counts := make([]int, 8)
	trials := 16000
	for i := 0; i < trials; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		require.GreaterOrEqual(t, action, 0)
		require.Less(t, action, 8)
		counts[action] += 1
	}
	for a, c := range counts {
		assert.InDelta(t, trials/8, c, float64(trials)/40, "action %d", a)
	}
}

func TestChooseActionExploresOverActions(t *testing.T) {
	cfg := testConfig(8, 4, 1)
	cfg.ExploreBound = ExploreOverActions
	agent := NewAgent[int, int](cfg, nil)

	counts := make([]int, 4)
	trials := 8000
	for i := 0; i < trials; i++ {
		action, ok := agent.ChooseAction(5)
		require.True(t, ok)
		require.Less(t, action, 4)
		counts[action] += 1
	}
	for a, c := range counts {
		assert.InDelta(t, trials/4, c, float64(trials)/20, "action %d", a)
	}
}

func TestChooseActionWithoutActableAction(t *testing.T) {
	mask := ActionMaskFunc[int, int](func(s, _ int) bool {
		return s != 1
	})

	for _, epsilon := range []float64{0, 0.5, 1} {
		agent := NewAgent[int, int](testConfig(3, 3, epsilon), mask)
		for i := 0; i < 100; i++ {
			_, ok := agent.ChooseAction(1)
			require.False(t, ok, "epsilon %v", epsilon)
		}
		_, ok := agent.ChooseAction(0)
		require.True(t, ok)
	}

	agent := NewAgent[int, int](testConfig(3, 3, 0), mask)
	_, ok := agent.Greedy(1)
	assert.False(t, ok)
	assert.True(t, math.IsInf(agent.MaxValue(1), -1))
}

func TestChooseActionHonoursMask(t *testing.T) {
	mask := ActionMaskFunc[int, int](func(_, a int) bool {
		return a != 2
	})
	agent := NewAgent[int, int](testConfig(2, 3, 0.5), mask)
	agent.Learn(0, 2, 1, 100)
	agent.Learn(0, 0, 1, 1)

	for i := 0; i < 1000; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		require.NotEqual(t, 2, action)
	}
	assert.Equal(t, float64(0.5), agent.MaxValue(0))
}

func TestLearnUpdateArithmetic(t *testing.T) {
	agent := NewAgent[int, int](testConfig(2, 2, 0), nil)

	agent.Learn(0, 1, 1, 10)
	assert.InDelta(t, 5.0, agent.Value(0, 1), 1e-12)

	agent.Learn(0, 1, 1, 10)
	assert.InDelta(t, 7.5, agent.Value(0, 1), 1e-12)

	// other entries untouched
	assert.Equal(t, float64(0), agent.Value(0, 0))
	assert.Equal(t, float64(0), agent.Value(1, 1))
}

func TestLearnUsesDiscountedNextValue(t *testing.T) {
	agent := NewAgent[int, int](testConfig(3, 2, 0), nil)
	agent.Learn(1, 0, 2, 20) // Q(1,0) = 10

	agent.Learn(0, 0, 1, 0)
	assert.InDelta(t, 0.5*0.9*10, agent.Value(0, 0), 1e-12)
}

// The next state's value never goes below zero: an all-negative next
// state contributes 0 rather than its true maximum.
func TestLearnFloorsNextValueAtZero(t *testing.T) {
	agent := NewAgent[int, int](testConfig(3, 2, 0), nil)
	agent.Learn(1, 0, 2, -10)
	agent.Learn(1, 1, 2, -10)
	require.Less(t, agent.MaxValue(1), float64(0))

	agent.Learn(0, 0, 1, 10)
	assert.InDelta(t, 5.0, agent.Value(0, 0), 1e-12)
}

func TestLearnIgnoresMaskedNextActions(t *testing.T) {
	mask := ActionMaskFunc[int, int](func(s, a int) bool {
		return !(s == 1 && a == 0)
	})
	masked := NewAgent[int, int](testConfig(3, 2, 0), mask)
	masked.Learn(1, 0, 2, 100)
	masked.Learn(0, 0, 1, 0)
	assert.Equal(t, float64(0), masked.Value(0, 0))

	unmasked := NewAgent[int, int](testConfig(3, 2, 0), nil)
	unmasked.Learn(1, 0, 2, 100)
	unmasked.Learn(0, 0, 1, 0)
	assert.InDelta(t, 0.5*0.9*50, unmasked.Value(0, 0), 1e-12)
}

func TestLearnPanicsOutsideTable(t *testing.T) {
	agent := NewAgent[int, int](testConfig(8, 4, 1), nil)

	assert.Panics(t, func() { agent.Learn(0, 8, 0, 1) })
	assert.Panics(t, func() { agent.Learn(8, 0, 0, 1) })
	assert.Panics(t, func() { agent.Learn(0, 0, -1, 1) })

	config := testConfig(8, 4, 1)
	config.ExploreBound = ExploreOverActions
	overActions := NewAgent[int, int](config, nil)
	assert.Panics(t, func() { overActions.Learn(0, 5, 0, 1) })
}

func TestLearnExploredActionBeyondNumActions(t *testing.T) {
	agent := NewAgent[int, int](testConfig(8, 4, 1), nil)

	assert.Zero(t, agent.Value(0, 6))
	agent.Learn(0, 6, 1, 10)
	assert.Equal(t, 5.0, agent.Value(0, 6))

	// greedy choices stay within the action range
	agent.Epsilon = 0
	for i := 0; i < 50; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		require.Less(t, action, 4)
	}
	assert.Zero(t, agent.MaxValue(0))

	r, c := agent.Table().Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 4, c)
}

func TestChooseActionPanicsOutsideStates(t *testing.T) {
	exploring := NewAgent[int, int](testConfig(8, 4, 1), nil)
	greedy := NewAgent[int, int](testConfig(8, 4, 0), nil)

	assert.Panics(t, func() { exploring.ChooseAction(8) })
	assert.Panics(t, func() { exploring.ChooseAction(-1) })
	assert.Panics(t, func() { greedy.ChooseAction(8) })
}

func TestEpsilonIsAdjustable(t *testing.T) {
	agent := NewAgent[int, int](testConfig(4, 4, 1), nil)
	agent.Learn(0, 2, 1, 10)

	agent.Epsilon = 0
	for i := 0; i < 100; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		require.Equal(t, 2, action)
	}
}

func TestSameSeedSameChoices(t *testing.T) {
	first := NewAgent[int, int](testConfig(10, 10, 0.5), nil)
	second := NewAgent[int, int](testConfig(10, 10, 0.5), nil)

	for i := 0; i < 200; i++ {
		a1, _ := first.ChooseAction(i % 10)
		a2, _ := second.ChooseAction(i % 10)
		require.Equal(t, a1, a2)
	}
}

func TestTableIsACopy(t *testing.T) {
	agent := NewAgent[int, int](testConfig(2, 2, 0), nil)
	table := agent.Table()
	table.Set(0, 0, 42)

	assert.Equal(t, float64(0), agent.Value(0, 0))
}

func TestDefaultSourceAgent(t *testing.T) {
	cfg := testConfig(3, 3, 0.5)
	cfg.Source = nil
	agent := NewAgent[int, int](cfg, nil)

	for i := 0; i < 1000; i++ {
		action, ok := agent.ChooseAction(0)
		require.True(t, ok)
		require.Less(t, action, 3)
	}
}
