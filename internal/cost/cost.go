// Package cost turns process outcomes and market samples into unit cost and
// margin. All arithmetic is whole-column.
package cost

import (
	"gonum.org/v1/gonum/floats"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// Model computes the cost breakdown of a batch.
type Model interface {
	Name() string
	Compute(b *models.ScenarioBatch, p *models.ProcessOutcome) (*models.CostOutcome, error)
}

// New resolves the cost strategy configured for line.
func New(line *config.ProductLine) (Model, error) {
	base := structure{
		conversion:     line.Cost.ConversionCost,
		hourly:         line.Cost.HourlyCost,
		selling:        line.Cost.SellingPrice,
		sellingMarket:  line.Cost.SellingMarket,
		referenceYield: line.Cost.ReferenceYield,
		additives:      line.Cost.Additives,
	}
	switch line.Cost.Model {
	case config.CostFormulation:
		return &Formulation{structure: base, ingredients: line.Cost.Ingredients}, nil
	case config.CostBlend:
		if line.Cost.Blend == nil {
			return nil, config.Errorf(line.Name, "cost.blend", "blend cost needs a blend section")
		}
		return &Blend{structure: base, blend: *line.Cost.Blend}, nil
	default:
		return nil, config.Errorf(line.Name, "cost.model", "unknown cost model %q", line.Cost.Model)
	}
}

// structure is the part shared by every strategy: yield scaling, additives,
// conversion cost and margin. Margin is taken against the selling market
// column when one is configured.
type structure struct {
	conversion     float64
	hourly         float64
	selling        float64
	sellingMarket  string
	referenceYield float64
	additives      []config.Additive
}

func (s structure) finish(b *models.ScenarioBatch, p *models.ProcessOutcome, material []float64) (*models.CostOutcome, error) {
	n := len(material)
	if s.referenceYield > 0 {
		// Raw material per unit of output grows as yield falls.
		floats.Div(material, p.Yield)
		floats.Scale(s.referenceYield, material)
	}
	for _, a := range s.additives {
		dose, err := column(b, models.KindParam, a.Param)
		if err != nil {
			return nil, err
		}
		floats.AddScaled(material, a.UnitPrice, dose)
	}

	conversion := filled(n, s.conversion)
	floats.AddScaled(conversion, s.hourly, p.CycleTime)

	unit := make([]float64, n)
	floats.AddTo(unit, material, conversion)

	margin := filled(n, s.selling)
	if s.sellingMarket != "" {
		quote, err := column(b, models.KindMarket, s.sellingMarket)
		if err != nil {
			return nil, err
		}
		copy(margin, quote)
	}
	floats.Sub(margin, unit)

	return &models.CostOutcome{
		MaterialCost:   material,
		ConversionCost: conversion,
		UnitCost:       unit,
		Margin:         margin,
	}, nil
}

func column(b *models.ScenarioBatch, kind, name string) ([]float64, error) {
	col, ok := b.Column(kind, name)
	if !ok || len(col) != b.N {
		return nil, &models.ShapeError{Source: "batch", Column: kind + "." + name, Len: len(col), Want: b.N}
	}
	return col, nil
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
