package cost

import (
	"gonum.org/v1/gonum/floats"

	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

// Formulation prices a fixed recipe: material = Σ ratio_k · price_k.
type Formulation struct {
	structure
	ingredients []config.Ingredient
}

func (f *Formulation) Name() string { return config.CostFormulation }

func (f *Formulation) Compute(b *models.ScenarioBatch, p *models.ProcessOutcome) (*models.CostOutcome, error) {
	if err := p.Validate(b.N); err != nil {
		return nil, err
	}
	material := make([]float64, b.N)
	for _, ing := range f.ingredients {
		price, err := column(b, models.KindMarket, ing.Market)
		if err != nil {
			return nil, err
		}
		floats.AddScaled(material, ing.Ratio, price)
	}
	return f.finish(b, p, material)
}

// Blend prices a two-ingredient recipe whose substitute share p is a process
// parameter: material = ratio·((1−p)·base + p·substitute) + p·surcharge.
type Blend struct {
	structure
	blend config.Blend
}

func (bl *Blend) Name() string { return config.CostBlend }

func (bl *Blend) Compute(b *models.ScenarioBatch, p *models.ProcessOutcome) (*models.CostOutcome, error) {
	if err := p.Validate(b.N); err != nil {
		return nil, err
	}
	share, err := column(b, models.KindParam, bl.blend.Param)
	if err != nil {
		return nil, err
	}
	base, err := column(b, models.KindMarket, bl.blend.BaseMarket)
	if err != nil {
		return nil, err
	}
	sub, err := column(b, models.KindMarket, bl.blend.SubstituteMarket)
	if err != nil {
		return nil, err
	}

	material := make([]float64, b.N)
	floats.SubTo(material, sub, base)
	floats.Mul(material, share)
	floats.Add(material, base)
	floats.Scale(bl.blend.Ratio, material)
	floats.AddScaled(material, bl.blend.Surcharge, share)
	return bl.finish(b, p, material)
}
