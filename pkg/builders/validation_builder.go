package builders

import (
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/observers"
)

// ValidationBuilder helps build validation rules for a simulation
type ValidationBuilder struct {
	observer *observers.ValidationObserver
	parent   *SimulationBuilder
}

// NewValidationBuilder creates a new validation builder. The observer
// allows the four-phase cycle only until more transitions are added.
func NewValidationBuilder() *ValidationBuilder {
	return &ValidationBuilder{
		observer: observers.NewValidationObserver(),
	}
}

// AllowTransition adds an allowed transition to validation
func (v *ValidationBuilder) AllowTransition(from, to core.Phase) *ValidationBuilder {
	v.observer.AddAllowedTransition(from, to)
	return v
}

// RequireFollowingGap checks that queued followers keep at least minGap
func (v *ValidationBuilder) RequireFollowingGap(minGap float64) *ValidationBuilder {
	v.observer.CheckFollowingGap(minGap)
	return v
}

// RequireConfiguredGap uses the configured minimum following distance
func (v *ValidationBuilder) RequireConfiguredGap(cfg config.Config) *ValidationBuilder {
	return v.RequireFollowingGap(cfg.Vehicles.MinFollowDistance)
}

// Build returns the validation observer
func (v *ValidationBuilder) Build() *observers.ValidationObserver {
	return v.observer
}

// Done returns to the simulation builder that created v. It returns nil
// for a standalone builder.
func (v *ValidationBuilder) Done() *SimulationBuilder {
	return v.parent
}
