package types

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// ExperimentStatus is the progress of a running experiment
type ExperimentStatus struct {
	Experiment string  `json:"experiment"`
	Run        int     `json:"run"`
	Episode    int     `json:"episode"`
	Episodes   int     `json:"episodes"`
	Timesteps  int     `json:"timesteps"`
	Reached    int     `json:"reached"`
	NoAction   int     `json:"no_action"`
	HorizonEnd int     `json:"horizon"`
	Errors     int     `json:"errors"`
	Epsilon    float64 `json:"epsilon"`
	LastReward float64 `json:"last_reward"`
	Running    bool    `json:"running"`
}

func updateStatus[S, A Index](s *ExperimentStatus, eCtx *EpisodeContext[S, A], epsilon float64) {
	switch eCtx.Outcome() {
	case "reached":
		s.Reached += 1
	case "no_action":
		s.NoAction += 1
	case "horizon":
		s.HorizonEnd += 1
	case "error":
		s.Errors += 1
	}
	s.Episode += 1
	s.Timesteps += eCtx.Timesteps
	s.LastReward = eCtx.TotalReward
	s.Epsilon = epsilon
}

// terminal representation of the status
func (s ExperimentStatus) String() string {
	episodes := s.Episode
	if episodes == 0 {
		episodes = 1
	}
	return fmt.Sprintf("Exp:%s, Run:%d, Eps:%d/%d, TSteps:%d || Reached:%d [%5.1f%%], NoAction:%d, Horizon:%d, Err:%d || Epsilon:%.4f, Reward:%.2f",
		s.Experiment, s.Run+1, s.Episode, s.Episodes, s.Timesteps,
		s.Reached, float32(s.Reached)/float32(episodes)*100, s.NoAction, s.HorizonEnd, s.Errors,
		s.Epsilon, s.LastReward)
}

// STATUS BOARD

// StatusBoard holds the latest status of each experiment.
// Safe for concurrent use
type StatusBoard struct {
	mu       sync.Mutex
	statuses map[string]ExperimentStatus
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		statuses: make(map[string]ExperimentStatus),
	}
}

// Set the status of the experiment, a nil board ignores it
func (b *StatusBoard) Set(s ExperimentStatus) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[s.Experiment] = s
}

func (b *StatusBoard) Get(experiment string) (ExperimentStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.statuses[experiment]
	return s, ok
}

// Snapshot returns the statuses sorted by experiment name
func (b *StatusBoard) Snapshot() []ExperimentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ExperimentStatus, 0, len(b.statuses))
	for _, s := range b.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Experiment < out[j].Experiment
	})
	return out
}

// TERMINAL PRINTER

// TerminalPrinter periodically redraws the status board in place
type TerminalPrinter struct {
	board      *StatusBoard
	printerCtx context.Context
	cancel     context.CancelFunc
	frequency  time.Duration
	done       chan struct{}

	writer *uilive.Writer
}

func NewTerminalPrinter(ctx context.Context, board *StatusBoard, out io.Writer, frequency time.Duration) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	if frequency <= 0 {
		frequency = time.Second
	}
	writer := uilive.New()
	if out != nil {
		writer.Out = out
	}
	return &TerminalPrinter{
		board:      board,
		printerCtx: printerCtx,
		cancel:     cancel,
		frequency:  frequency,
		done:       make(chan struct{}),
		writer:     writer,
	}
}

func (p *TerminalPrinter) Start() {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-p.printerCtx.Done():
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop the printer and draw the final state
func (p *TerminalPrinter) Stop() {
	p.cancel()
	<-p.done
	p.print()
}

func (p *TerminalPrinter) print() {
	lines := make([]string, 0)
	for _, s := range p.board.Snapshot() {
		lines = append(lines, s.String())
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(p.writer, strings.Join(lines, "\n"))
	p.writer.Flush()
}
