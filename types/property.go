package types

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strconv"

	"github.com/zeu5/qlearn/util"
)

// Property is checked on every trace, Check returns whether the trace
// satisfies it and the step at which it did
type Property[S, A Index] struct {
	Name  string
	Check func(*Trace[S, A]) (bool, int)
}

// MonitorProperty checks the property with the monitor
func MonitorProperty[S, A Index](name string, m *Monitor[S, A]) Property[S, A] {
	return Property[S, A]{
		Name: name,
		Check: func(t *Trace[S, A]) (bool, int) {
			prefix, ok := m.Check(t)
			if !ok {
				return false, -1
			}
			return true, prefix.Len() - 1
		},
	}
}

// PropertyDataSet is the first episode in which each property held
// and the number of episodes in which it held
type PropertyDataSet struct {
	FirstOccurrence map[string]int `json:"first_occurrence"`
	Occurrences     map[string]int `json:"occurrences"`
}

// PropertyAnalyzer checks the properties on the traces.
// When savePath is not empty, the first satisfying trace of every property
// is recorded as <run>_<experiment>_<property>_<episode>_step<step>.json.
// Failing to record a trace is logged and does not affect the dataset
type PropertyAnalyzer[S, A Index] struct {
	savePath   string
	properties []Property[S, A]
	dataSet    *PropertyDataSet
	logger     *slog.Logger
}

var _ Analyzer[int, int] = &PropertyAnalyzer[int, int]{}

// NewPropertyAnalyzer creates the analyzer, a nil logger discards the output
func NewPropertyAnalyzer[S, A Index](savePath string, logger *slog.Logger, properties ...Property[S, A]) *PropertyAnalyzer[S, A] {
	if logger == nil {
		logger = discardLogger()
	}
	p := &PropertyAnalyzer[S, A]{
		savePath:   savePath,
		properties: properties,
		logger:     logger,
	}
	p.Reset()
	return p
}

func (p *PropertyAnalyzer[S, A]) Analyze(run int, eCtx *EpisodeContext[S, A]) {
	for _, prop := range p.properties {
		ok, step := prop.Check(eCtx.Trace)
		if !ok {
			continue
		}
		p.dataSet.Occurrences[prop.Name] += 1
		if _, seen := p.dataSet.FirstOccurrence[prop.Name]; seen {
			continue
		}
		p.dataSet.FirstOccurrence[prop.Name] = eCtx.Episode
		if p.savePath == "" {
			continue
		}
		if err := p.record(run, eCtx, prop.Name, step); err != nil {
			p.logger.Warn("recording property trace",
				"property", prop.Name,
				"experiment", eCtx.ExperimentName,
				"episode", eCtx.Episode,
				"error", err,
			)
		}
	}
}

func (p *PropertyAnalyzer[S, A]) record(run int, eCtx *EpisodeContext[S, A], name string, step int) error {
	if err := util.EnsureDir(p.savePath); err != nil {
		return err
	}
	bs, err := json.Marshal(eCtx.Trace.Record(eCtx.Episode))
	if err != nil {
		return fmt.Errorf("marshalling trace: %w", err)
	}
	file := strconv.Itoa(run) + "_" + eCtx.ExperimentName + "_" + name + "_" + strconv.Itoa(eCtx.Episode) + "_step" + strconv.Itoa(step) + ".json"
	return util.WriteToFile(path.Join(p.savePath, file), string(bs))
}

func (p *PropertyAnalyzer[S, A]) DataSet() DataSet {
	out := &PropertyDataSet{
		FirstOccurrence: make(map[string]int),
		Occurrences:     make(map[string]int),
	}
	for k, v := range p.dataSet.FirstOccurrence {
		out.FirstOccurrence[k] = v
	}
	for k, v := range p.dataSet.Occurrences {
		out.Occurrences[k] = v
	}
	return out
}

func (p *PropertyAnalyzer[S, A]) Reset() {
	p.dataSet = &PropertyDataSet{
		FirstOccurrence: make(map[string]int),
		Occurrences:     make(map[string]int),
	}
}

// PropertyComparator prints when each property was first satisfied and
// writes the datasets of the run to <run>_properties.json
func PropertyComparator(savePath string) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		data := make(map[string]*PropertyDataSet)
		for i, exp := range names {
			dataSet := ds[i].(*PropertyDataSet)
			fmt.Printf("For run:%d, experiment: %s\n", run, exp)
			for prop, episode := range dataSet.FirstOccurrence {
				fmt.Printf("\tProperty: %s, First episode: %d, Occurrences: %d\n", prop, episode, dataSet.Occurrences[prop])
			}
			data[exp] = dataSet
		}

		bs, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if err := util.EnsureDir(savePath); err != nil {
			return err
		}
		return util.WriteToFile(path.Join(savePath, strconv.Itoa(run)+"_properties.json"), string(bs))
	}
}
