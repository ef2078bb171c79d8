package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadRegistry loads and parses a registry file
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}
	reg, err := ParseRegistryYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", path, err)
	}
	return reg, nil
}

// validateRegistry runs the struct tag rules and then the cross-field domain
// checks the tags cannot express.
func validateRegistry(reg *Registry) error {
	if err := validate.Struct(reg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigurationError{
				Field:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
				Err:    err,
			}
		}
		return &ConfigurationError{Reason: "validation failed", Err: err}
	}

	seen := make(map[string]bool, len(reg.ProductLines))
	for i := range reg.ProductLines {
		pl := &reg.ProductLines[i]
		if seen[pl.Name] {
			return Errorf(pl.Name, "name", "duplicate product line")
		}
		seen[pl.Name] = true
		if err := validateLine(pl); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(pl *ProductLine) error {
	names := make(map[string]string)
	claim := func(kind, name string) error {
		if name == "" {
			return Errorf(pl.Name, kind, "name cannot be empty")
		}
		if prev, ok := names[name]; ok {
			return Errorf(pl.Name, kind, "name %q already used by %s", name, prev)
		}
		names[name] = kind
		return nil
	}

	for _, p := range pl.Parameters {
		if err := claim("parameters", p.Name); err != nil {
			return err
		}
		if !finite(p.Min, p.Max, p.Nominal) {
			return Errorf(pl.Name, "parameters."+p.Name, "range must be finite")
		}
		if p.Nominal < p.Min || p.Nominal > p.Max {
			return Errorf(pl.Name, "parameters."+p.Name, "nominal %g outside [%g, %g]", p.Nominal, p.Min, p.Max)
		}
	}
	for _, d := range pl.Noise {
		if err := claim("noise", d.Name); err != nil {
			return err
		}
	}
	for _, d := range pl.Market {
		if err := claim("market", d.Name); err != nil {
			return err
		}
	}

	for name, v := range pl.Physics.Constants {
		field := "physics.constants." + name
		if !finite(v) {
			return Errorf(pl.Name, field, "must be finite")
		}
		// Absolute temperatures and monetary constants must be strictly positive.
		if strings.HasSuffix(name, "_k") && v <= 0 {
			return Errorf(pl.Name, field, "absolute temperature must be positive, got %g", v)
		}
		if (strings.Contains(name, "price") || strings.Contains(name, "cost")) && v <= 0 {
			return Errorf(pl.Name, field, "cost constant must be positive, got %g", v)
		}
	}

	if err := validateCost(pl, names); err != nil {
		return err
	}

	for i := range pl.SpecLimits {
		sl := &pl.SpecLimits[i]
		field := "spec_limits." + sl.Name
		if sl.Lower == nil && sl.Upper == nil {
			return Errorf(pl.Name, field, "at least one of lower or upper is required")
		}
		if sl.Lower != nil && sl.Upper != nil {
			if *sl.Lower >= *sl.Upper {
				return Errorf(pl.Name, field, "lower %g must be below upper %g", *sl.Lower, *sl.Upper)
			}
			if sl.Nominal == 0 {
				sl.Nominal = (*sl.Lower + *sl.Upper) / 2
			}
		}
		if sl.Nominal != 0 && !sl.Contains(sl.Nominal) {
			return Errorf(pl.Name, field, "nominal %g outside limits", sl.Nominal)
		}
	}

	if g := pl.Sweep; g != nil {
		p, ok := pl.Parameter(g.Parameter)
		if !ok {
			return Errorf(pl.Name, "sweep.parameter", "unknown parameter %q", g.Parameter)
		}
		if g.Start < p.Min || g.Stop > p.Max {
			return Errorf(pl.Name, "sweep", "grid [%g, %g] outside parameter range [%g, %g]", g.Start, g.Stop, p.Min, p.Max)
		}
	}
	return nil
}

func validateCost(pl *ProductLine, names map[string]string) error {
	c := pl.Cost
	isMarket := func(name string) bool { return names[name] == "market" }
	isParam := func(name string) bool { return names[name] == "parameters" }

	switch c.Model {
	case CostFormulation:
		if len(c.Ingredients) == 0 {
			return Errorf(pl.Name, "cost.ingredients", "formulation cost needs at least one ingredient")
		}
	case CostBlend:
		if c.Blend == nil {
			return Errorf(pl.Name, "cost.blend", "blend cost needs a blend section")
		}
		if !isParam(c.Blend.Param) {
			return Errorf(pl.Name, "cost.blend.param", "unknown parameter %q", c.Blend.Param)
		}
		for _, m := range []string{c.Blend.BaseMarket, c.Blend.SubstituteMarket} {
			if !isMarket(m) {
				return Errorf(pl.Name, "cost.blend", "unknown market input %q", m)
			}
		}
	}
	for _, ing := range c.Ingredients {
		if !isMarket(ing.Market) {
			return Errorf(pl.Name, "cost.ingredients", "unknown market input %q", ing.Market)
		}
	}
	if c.SellingMarket != "" && !isMarket(c.SellingMarket) {
		return Errorf(pl.Name, "cost.selling_market", "unknown market input %q", c.SellingMarket)
	}
	for _, a := range c.Additives {
		if !isParam(a.Param) {
			return Errorf(pl.Name, "cost.additives", "unknown parameter %q", a.Param)
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
