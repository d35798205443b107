/*package perf accumulates per-phase timings for charge spreading
passes, mirroring the data-in / map / spread timers the surrounding
simulator expects for load balancing.
*/
package perf

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

// Phase names for one spreading pass.
const (
	PhaseResize = "resize"
	PhaseMirror = "mirror"
	PhaseZero   = "zero"
	PhaseMap    = "map"
	PhaseSpread = "spread"
)

var allPhases = []string{
	PhaseResize, PhaseMirror, PhaseZero, PhaseMap, PhaseSpread,
}

// Sample holds the timings of a single pass.
type Sample struct {
	PassDuration time.Duration
	Phases       map[string]time.Duration
}

// Collector tracks pass timings over a rolling window.
type Collector struct {
	windowSize  int
	samples     []Sample
	writeIndex  int
	sampleCount int

	current   map[string]time.Duration
	passStart time.Time
	phase     string
	phaseAt   time.Time
}

// NewCollector returns a Collector averaging over the last windowSize
// passes.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = 16
	}
	return &Collector{
		windowSize: windowSize,
		samples:    make([]Sample, windowSize),
		current:    map[string]time.Duration{},
	}
}

// StartPass begins timing a new pass.
func (c *Collector) StartPass() {
	c.passStart = time.Now()
	c.current = map[string]time.Duration{}
	c.phase = ""
}

// StartPhase closes the running phase, if any, and begins a new one.
func (c *Collector) StartPhase(phase string) {
	now := time.Now()
	if c.phase != "" {
		c.current[c.phase] += now.Sub(c.phaseAt)
	}
	c.phase = phase
	c.phaseAt = now
}

// EndPass closes the running phase and records the pass sample.
func (c *Collector) EndPass() {
	now := time.Now()
	if c.phase != "" {
		c.current[c.phase] += now.Sub(c.phaseAt)
		c.phase = ""
	}

	c.samples[c.writeIndex] = Sample{
		PassDuration: now.Sub(c.passStart),
		Phases:       c.current,
	}
	c.writeIndex = (c.writeIndex + 1) % c.windowSize
	if c.sampleCount < c.windowSize {
		c.sampleCount++
	}
}

// Stats holds statistics aggregated over the collection window.
type Stats struct {
	Passes                    int
	AvgPass, MinPass, MaxPass time.Duration

	// Average duration and share of the pass for each phase.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
}

// Stats aggregates the samples currently in the window.
func (c *Collector) Stats() Stats {
	s := Stats{
		PhaseAvg: map[string]time.Duration{},
		PhasePct: map[string]float64{},
	}
	if c.sampleCount == 0 {
		return s
	}

	var total time.Duration
	phaseSum := map[string]time.Duration{}
	for i := 0; i < c.sampleCount; i++ {
		sm := c.samples[i]
		total += sm.PassDuration
		if i == 0 || sm.PassDuration < s.MinPass {
			s.MinPass = sm.PassDuration
		}
		if sm.PassDuration > s.MaxPass {
			s.MaxPass = sm.PassDuration
		}
		for ph, d := range sm.Phases {
			phaseSum[ph] += d
		}
	}

	s.Passes = c.sampleCount
	s.AvgPass = total / time.Duration(c.sampleCount)
	for ph, sum := range phaseSum {
		s.PhaseAvg[ph] = sum / time.Duration(c.sampleCount)
		if s.AvgPass > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) /
				float64(s.AvgPass) * 100
		}
	}
	return s
}

// String formats the stats as a short human-readable report.
func (s Stats) String() string {
	out := fmt.Sprintf(
		"passes %d  avg %v  min %v  max %v",
		s.Passes, s.AvgPass, s.MinPass, s.MaxPass,
	)
	for _, ph := range allPhases {
		if d, ok := s.PhaseAvg[ph]; ok {
			out += fmt.Sprintf("\n  %-6s %10v  %5.1f%%",
				ph, d, s.PhasePct[ph])
		}
	}
	return out
}

// Row is the flat CSV form of one strategy's aggregated stats.
type Row struct {
	Strategy  string  `csv:"strategy"`
	Passes    int     `csv:"passes"`
	AvgPassUS int64   `csv:"avg_pass_us"`
	MinPassUS int64   `csv:"min_pass_us"`
	MaxPassUS int64   `csv:"max_pass_us"`
	ResizePct float64 `csv:"resize_pct"`
	MirrorPct float64 `csv:"mirror_pct"`
	ZeroPct   float64 `csv:"zero_pct"`
	MapPct    float64 `csv:"map_pct"`
	SpreadPct float64 `csv:"spread_pct"`
}

// ToRow converts the stats into a CSV row tagged with a strategy name.
func (s Stats) ToRow(strategy string) Row {
	return Row{
		Strategy:  strategy,
		Passes:    s.Passes,
		AvgPassUS: s.AvgPass.Microseconds(),
		MinPassUS: s.MinPass.Microseconds(),
		MaxPassUS: s.MaxPass.Microseconds(),
		ResizePct: s.PhasePct[PhaseResize],
		MirrorPct: s.PhasePct[PhaseMirror],
		ZeroPct:   s.PhasePct[PhaseZero],
		MapPct:    s.PhasePct[PhaseMap],
		SpreadPct: s.PhasePct[PhaseSpread],
	}
}

// WriteCSV writes one row per strategy to fname.
func WriteCSV(fname string, rows []Row) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}

// ReadCSV reads back a timing file written by WriteCSV.
func ReadCSV(fname string) ([]Row, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows := []Row{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
