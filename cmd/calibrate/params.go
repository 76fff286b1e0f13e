package main

import (
	"time"

	"github.com/pthm-cable/phage/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the virus dispersion speed alone, or speed and
// period together when withPeriod is set. Defaults come from base.
func NewParamVector(base *config.Config, withPeriod bool) *ParamVector {
	v := base.Diffusion.Virus
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "dispersion_speed", Path: "diffusion.virus.dispersion_speed", Min: 0.01, Max: 1.0, Default: v.DispersionSpeed},
		},
	}
	if withPeriod {
		pv.Specs = append(pv.Specs, ParamSpec{
			Name:    "dispersion_period_ms",
			Path:    "diffusion.virus.dispersion_period",
			Min:     50,
			Max:     3000,
			Default: float64(v.DispersionPeriod / time.Millisecond),
		})
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg's virus section.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "dispersion_speed":
			cfg.Diffusion.Virus.DispersionSpeed = clamped[i]
		case "dispersion_period_ms":
			cfg.Diffusion.Virus.DispersionPeriod = time.Duration(clamped[i] * float64(time.Millisecond))
		}
	}
}
