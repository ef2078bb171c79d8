package simd

import (
	"context"
	"errors"

	"github.com/GoSim-25-26J-441/processline-sim/internal/engine"
	"github.com/GoSim-25-26J-441/processline-sim/internal/improvement"
	"github.com/GoSim-25-26J-441/processline-sim/internal/sensitivity"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/config"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

type class int

const (
	classInternal class = iota
	classNotFound
	classInvalid
	classNumeric
	classCanceled
)

// errorClass buckets service errors for the transports.
func errorClass(err error) class {
	var (
		cfgErr     *config.ConfigurationError
		samplingEr *engine.SamplingError
		shapeErr   *models.ShapeError
		numericErr *engine.NumericDomainError
		targetErr  *improvement.UnknownTargetError
	)
	switch {
	case errors.Is(err, config.ErrUnknownProductLine):
		return classNotFound
	case errors.As(err, &numericErr):
		return classNumeric
	case errors.As(err, &cfgErr), errors.As(err, &samplingEr), errors.As(err, &shapeErr), errors.As(err, &targetErr):
		return classInvalid
	case errors.Is(err, sensitivity.ErrNoInputs):
		return classInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return classCanceled
	}
	return classInternal
}
