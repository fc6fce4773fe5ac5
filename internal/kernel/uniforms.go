package kernel

// Uniform names used by the built-in kernels.
const (
	UniformDT           = "dt"
	UniformLift         = "lift"
	UniformWeight       = "weight"
	UniformAmbient      = "ambient"
	UniformSourceX      = "source_x"
	UniformSourceY      = "source_y"
	UniformSourceRadius = "source_radius"
	UniformHeatRate     = "heat_rate"
	UniformSootRate     = "soot_rate"
	UniformDissipation  = "dissipation"
	UniformClearValue   = "clear_value"
)

// Uniforms carries the scalar parameters of one dispatch. Kernels read only
// the fields they declare.
type Uniforms struct {
	DT float32

	// Buoyancy: v.y += DT * (Lift*(T-Ambient) - Weight*d)
	Lift    float32
	Weight  float32
	Ambient float32

	// Injection disc, in cell coordinates.
	SourceX      float32
	SourceY      float32
	SourceRadius float32
	HeatRate     float32
	SootRate     float32

	Dissipation float32
	ClearValue  float32
}

// Value returns the uniform called name.
func (u *Uniforms) Value(name string) (float32, bool) {
	switch name {
	case UniformDT:
		return u.DT, true
	case UniformLift:
		return u.Lift, true
	case UniformWeight:
		return u.Weight, true
	case UniformAmbient:
		return u.Ambient, true
	case UniformSourceX:
		return u.SourceX, true
	case UniformSourceY:
		return u.SourceY, true
	case UniformSourceRadius:
		return u.SourceRadius, true
	case UniformHeatRate:
		return u.HeatRate, true
	case UniformSootRate:
		return u.SootRate, true
	case UniformDissipation:
		return u.Dissipation, true
	case UniformClearValue:
		return u.ClearValue, true
	}
	return 0, false
}
