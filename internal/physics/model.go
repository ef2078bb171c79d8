// Package physics holds the per-product-line physics strategies. Every model
// is a pure function of a ScenarioBatch: output index i depends only on
// input index i.
package physics

import (
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// Constants are the physics constants of one product line.
type Constants map[string]float64

// Requirements lists the inputs a model reads and the quality metrics it
// writes.
type Requirements struct {
	Constants []string
	Params    []string
	Noise     []string
	Quality   []string
}

// Model maps a scenario batch to process outcomes.
type Model interface {
	Name() string
	Requirements() Requirements
	Simulate(batch *models.ScenarioBatch, c Constants) (*models.ProcessOutcome, error)
}

var registry = map[string]func() Model{
	"ghee_churning":  func() Model { return gheeChurning{} },
	"honey_vacuum":   func() Model { return honeyVacuum{} },
	"dal_extrusion":  func() Model { return dalExtrusion{} },
	"atta_enzymatic": func() Model { return attaEnzymatic{} },
	"oil_cold_press": func() Model { return oilColdPress{} },

	"honey_creaming":      func() Model { return honeyCreaming{} },
	"mead_fermentation":   func() Model { return meadFermentation{} },
	"machine_fabrication": func() Model { return machineFabrication{} },
}

// Names lists the registered model names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New resolves the model configured for line and checks that the line
// supplies everything the model reads.
func New(line *config.ProductLine) (Model, error) {
	ctor, ok := registry[line.Model]
	if !ok {
		return nil, config.Errorf(line.Name, "model", "unknown physics model %q (known: %s)", line.Model, strings.Join(Names(), ", "))
	}
	m := ctor()
	req := m.Requirements()

	for _, name := range req.Constants {
		if _, ok := line.Physics.Constants[name]; !ok {
			return nil, config.Errorf(line.Name, "physics.constants."+name, "required by model %s", m.Name())
		}
	}
	for _, name := range req.Params {
		if _, ok := line.Parameter(name); !ok {
			return nil, config.Errorf(line.Name, "parameters."+name, "required by model %s", m.Name())
		}
	}
	noise := make(map[string]bool, len(line.Noise))
	for _, d := range line.Noise {
		noise[d.Name] = true
	}
	for _, name := range req.Noise {
		if !noise[name] {
			return nil, config.Errorf(line.Name, "noise."+name, "required by model %s", m.Name())
		}
	}
	return m, nil
}

// columns reads batch columns and remembers the first missing one, so model
// code can fetch everything and check once.
type columns struct {
	b   *models.ScenarioBatch
	err error
}

func read(b *models.ScenarioBatch) *columns {
	return &columns{b: b}
}

func (c *columns) param(name string) []float64 {
	return c.get(models.KindParam, name)
}

func (c *columns) noise(name string) []float64 {
	return c.get(models.KindNoise, name)
}

func (c *columns) get(kind, name string) []float64 {
	if c.err != nil {
		return nil
	}
	col, ok := c.b.Column(kind, name)
	if !ok || len(col) != c.b.N {
		c.err = &models.ShapeError{Source: "batch", Column: kind + "." + name, Len: len(col), Want: c.b.N}
		return nil
	}
	return col
}
