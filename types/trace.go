package types

// Trace of an episode as triplets (state, action, result)
type Trace[S, A Index] struct {
	states  []S
	actions []A
	results []StepResult[S]
}

func NewTrace[S, A Index]() *Trace[S, A] {
	return &Trace[S, A]{
		states:  make([]S, 0),
		actions: make([]A, 0),
		results: make([]StepResult[S], 0),
	}
}

func (t *Trace[S, A]) Slice(from, to int) *Trace[S, A] {
	slicedTrace := NewTrace[S, A]()
	for i := from; i < to; i++ {
		slicedTrace.Append(t.states[i], t.actions[i], t.results[i])
	}
	return slicedTrace
}

func (t *Trace[S, A]) Append(state S, action A, result StepResult[S]) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.results = append(t.results, result)
}

func (t *Trace[S, A]) Len() int {
	return len(t.states)
}

func (t *Trace[S, A]) Get(i int) (S, A, StepResult[S], bool) {
	if i < 0 || i >= len(t.states) {
		var s S
		var a A
		return s, a, StepResult[S]{}, false
	}
	return t.states[i], t.actions[i], t.results[i], true
}

func (t *Trace[S, A]) Last() (S, A, StepResult[S], bool) {
	return t.Get(len(t.states) - 1)
}

// TotalReward is the undiscounted sum of the rewards in the trace
func (t *Trace[S, A]) TotalReward() float64 {
	total := float64(0)
	for _, r := range t.results {
		total += r.Reward
	}
	return total
}

// Reached is true when the last transition ended the episode
func (t *Trace[S, A]) Reached() bool {
	_, _, result, ok := t.Last()
	return ok && result.Done
}

// TraceRecord is the serialized form of a trace
type TraceRecord struct {
	Episode     int             `json:"episode"`
	Steps       []TraceStepJSON `json:"steps"`
	TotalReward float64         `json:"total_reward"`
	Reached     bool            `json:"reached"`
}

type TraceStepJSON struct {
	State     int64   `json:"state"`
	Action    int64   `json:"action"`
	NextState int64   `json:"next_state"`
	Reward    float64 `json:"reward"`
	Done      bool    `json:"done"`
}

func (t *Trace[S, A]) Record(episode int) *TraceRecord {
	steps := make([]TraceStepJSON, t.Len())
	for i := 0; i < t.Len(); i++ {
		steps[i] = TraceStepJSON{
			State:     int64(t.states[i]),
			Action:    int64(t.actions[i]),
			NextState: int64(t.results[i].NextState),
			Reward:    t.results[i].Reward,
			Done:      t.results[i].Done,
		}
	}
	return &TraceRecord{
		Episode:     episode,
		Steps:       steps,
		TotalReward: t.TotalReward(),
		Reached:     t.Reached(),
	}
}
