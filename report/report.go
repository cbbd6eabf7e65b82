package report

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/forces"
	"github.com/notargets/FVLoads/solver"
)

// Coefficients maps channel names to values
type Coefficients map[string]float64

// FromBundle converts a bundle into its named form
func FromBundle(b *coefficients.Bundle) Coefficients { return b.Map() }

// Get returns channel c, zero when missing
func (c Coefficients) Get(ch coefficients.Channel) float64 { return c[ch.String()] }

// Coloring summarizes the edge scheduling decision of a run
type Coloring struct {
	Strategy      string  `yaml:"strategy"`
	Colors        int     `yaml:"colors"`
	Efficiency    float64 `yaml:"efficiency"`
	MinEfficiency float64 `yaml:"min_efficiency"`
	ReducerRanks  int     `yaml:"reducer_ranks"`
}

// Pass holds the reduced all-bound coefficients of one contribution
type Pass struct {
	Name     string       `yaml:"name"`
	AllBound Coefficients `yaml:"all_bound"`
}

// Surface holds the totals of one monitored surface
type Surface struct {
	Tag          string       `yaml:"tag"`
	Coefficients Coefficients `yaml:"coefficients"`
}

// Report is the serializable result of one force evaluation
type Report struct {
	RunID     string       `yaml:"run_id"`
	Created   time.Time    `yaml:"created"`
	Case      string       `yaml:"case,omitempty"`
	Ranks     int          `yaml:"ranks"`
	Dim       int          `yaml:"dim"`
	Coloring  Coloring     `yaml:"coloring"`
	Passes    []Pass       `yaml:"passes"`
	Surfaces  []Surface    `yaml:"surfaces"`
	Total     Coefficients `yaml:"total"`
	NearField float64      `yaml:"near_field"`
}

// New builds a report from a solver whose iteration is complete. Reduced values are the
// same on every rank, so any rank's solver can be used.
func New(s *solver.Solver, caseName string) *Report {
	d := s.Decision()
	r := &Report{
		RunID:   uuid.NewString(),
		Created: time.Now().UTC().Truncate(time.Second),
		Case:    caseName,
		Ranks:   s.Communicator().Size(),
		Dim:     s.Mesh().Dim(),
		Coloring: Coloring{
			MinEfficiency: s.MinEfficiency(),
			ReducerRanks:  s.ReducerRanks(),
		},
		Total:     FromBundle(s.Total()),
		NearField: s.NearFieldObjective(),
	}
	if d != nil {
		r.Coloring.Strategy = d.Strategy.String()
		r.Coloring.Colors = d.Coloring.NumColors()
		r.Coloring.Efficiency = d.Efficiency
	}
	for p := forces.Pass(0); p < forces.NumPasses; p++ {
		r.Passes = append(r.Passes, Pass{Name: p.String(), AllBound: FromBundle(s.AllBound(p))})
	}
	for i, tag := range s.SurfaceTags() {
		r.Surfaces = append(r.Surfaces, Surface{Tag: tag, Coefficients: FromBundle(s.SurfaceTotal(i))})
	}
	return r
}

// WriteYAML encodes the report to w
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// ReadYAML decodes a report written by WriteYAML
func ReadYAML(rd io.Reader) (*Report, error) {
	var r Report
	if err := yaml.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		return nil, fmt.Errorf("report run id %q: %w", r.RunID, err)
	}
	return &r, nil
}
