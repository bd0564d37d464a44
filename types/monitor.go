package types

var (
	InitState string = "init"
)

// MonitorState is a node of a Monitor, created through MonitorBuilder
type MonitorState[S, A Index] struct {
	Success     bool
	Name        string
	transitions map[string]MonitorCondition[S, A]
	// insertion order of the transitions, the first satisfied one is taken
	order []string
}

// MonitorCondition labels the edges of a Monitor, it is evaluated on
// (state, action, next state) of every step
type MonitorCondition[S, A Index] func(S, A, S) bool

func (m MonitorCondition[S, A]) Not() MonitorCondition[S, A] {
	return func(s S, a A, ns S) bool {
		return !m(s, a, ns)
	}
}

func (m MonitorCondition[S, A]) Or(other MonitorCondition[S, A]) MonitorCondition[S, A] {
	return func(s S, a A, ns S) bool {
		return m(s, a, ns) || other(s, a, ns)
	}
}

func (m MonitorCondition[S, A]) And(other MonitorCondition[S, A]) MonitorCondition[S, A] {
	return func(s S, a A, ns S) bool {
		return m(s, a, ns) && other(s, a, ns)
	}
}

// Monitor is a state machine run over the transitions of a trace
type Monitor[S, A Index] struct {
	states map[string]*MonitorState[S, A]
}

// Check runs the monitor over the trace and returns the shortest prefix
// that drives it to a success state
func (m *Monitor[S, A]) Check(t *Trace[S, A]) (*Trace[S, A], bool) {
	cur := m.states[InitState]
	if t.Len() == 0 || cur.Success {
		return NewTrace[S, A](), cur.Success
	}
	for i := 0; i < t.Len(); i++ {
		s, a, result, _ := t.Get(i)
		for _, next := range cur.order {
			if cur.transitions[next](s, a, result.NextState) {
				cur = m.states[next]
				break
			}
		}
		if cur.Success {
			return t.Slice(0, i+1), true
		}
	}
	return nil, false
}

// NewMonitor creates a monitor with only the initial state
func NewMonitor[S, A Index]() *Monitor[S, A] {
	m := &Monitor[S, A]{
		states: make(map[string]*MonitorState[S, A]),
	}
	m.states[InitState] = newMonitorState[S, A](InitState)
	return m
}

func newMonitorState[S, A Index](name string) *MonitorState[S, A] {
	return &MonitorState[S, A]{
		Name:        name,
		Success:     false,
		transitions: make(map[string]MonitorCondition[S, A]),
		order:       make([]string, 0),
	}
}

// Build returns a builder positioned at the initial state
func (m *Monitor[S, A]) Build() *MonitorBuilder[S, A] {
	return &MonitorBuilder[S, A]{
		monitor:  m,
		curState: m.states[InitState],
	}
}

// MonitorBuilder adds edges starting from one state of the monitor
type MonitorBuilder[S, A Index] struct {
	monitor  *Monitor[S, A]
	curState *MonitorState[S, A]
}

// On adds an edge to the state named next, creating it if needed, and
// returns a builder positioned there so that calls can be chained
func (m *MonitorBuilder[S, A]) On(cond MonitorCondition[S, A], next string) *MonitorBuilder[S, A] {
	nextState, ok := m.monitor.states[next]
	if !ok {
		nextState = newMonitorState[S, A](next)
		m.monitor.states[next] = nextState
	}
	if _, ok := m.curState.transitions[next]; !ok {
		m.curState.order = append(m.curState.order, next)
	}
	m.curState.transitions[next] = cond
	return &MonitorBuilder[S, A]{
		monitor:  m.monitor,
		curState: nextState,
	}
}

// MarkSuccess makes the builder's state accepting
func (m *MonitorBuilder[S, A]) MarkSuccess() *MonitorBuilder[S, A] {
	m.curState.Success = true
	return m
}
