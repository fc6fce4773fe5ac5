package kernel

import (
	"github.com/chewxy/math32"

	"candleflame/internal/field"
)

// Built-in kernel names.
const (
	Clear      = "clear"
	Buoyancy   = "buoyancy"
	Impulse    = "impulse"
	Advect     = "advect"
	Divergence = "divergence"
	Jacobi     = "jacobi"
	Gradient   = "gradient"
)

// Role names bound by the built-in kernels.
const (
	RoleField         = "fieldOut"
	RoleVelocityIn    = "velocityIn"
	RoleVelocityOut   = "velocityOut"
	RoleTemperatureIn = "temperatureIn"
	RoleDensityIn     = "densityIn"
	RoleTemperature   = "temperatureOut"
	RoleDensity       = "densityOut"
	RoleSourceIn      = "sourceIn"
	RoleTargetOut     = "targetOut"
	RoleDivergenceIn  = "divergenceIn"
	RoleDivergenceOut = "divergenceOut"
	RolePressureIn    = "pressureIn"
	RolePressureOut   = "pressureOut"
)

// roleComponents is the component count of every role with a fixed field
// behind it. Advect's source and target roles take either kind.
var roleComponents = map[string]int{
	RoleVelocityIn:    2,
	RoleVelocityOut:   2,
	RoleTemperatureIn: 1,
	RoleDensityIn:     1,
	RoleTemperature:   1,
	RoleDensity:       1,
	RoleDivergenceIn:  1,
	RoleDivergenceOut: 1,
	RolePressureIn:    1,
	RolePressureOut:   1,
}

func components(roles ...string) map[string]int {
	m := make(map[string]int, len(roles))
	for _, r := range roles {
		m[r] = roleComponents[r]
	}
	return m
}

// Builtin returns a library holding the stable-fluids kernels.
func Builtin() *Library {
	l, err := NewLibrary(
		&Kernel{
			Name:     Clear,
			Outputs:  []string{RoleField},
			Uniforms: []string{UniformClearValue},
			Source:   clearSource,
			Cell:     clearCell,
		},
		&Kernel{
			Name:       Buoyancy,
			Inputs:     []string{RoleVelocityIn, RoleTemperatureIn, RoleDensityIn},
			Outputs:    []string{RoleVelocityOut},
			Components: components(RoleVelocityIn, RoleTemperatureIn, RoleDensityIn, RoleVelocityOut),
			Uniforms:   []string{UniformDT, UniformLift, UniformWeight, UniformAmbient},
			Source:     buoyancySource,
			Cell:       buoyancyCell,
		},
		&Kernel{
			// impulse updates its outputs in place; each cell only touches itself
			Name:       Impulse,
			Outputs:    []string{RoleTemperature, RoleDensity},
			Components: components(RoleTemperature, RoleDensity),
			Uniforms: []string{
				UniformDT, UniformSourceX, UniformSourceY, UniformSourceRadius,
				UniformHeatRate, UniformSootRate,
			},
			Source: impulseSource,
			Cell:   impulseCell,
		},
		&Kernel{
			Name:       Advect,
			Inputs:     []string{RoleVelocityIn, RoleSourceIn},
			Outputs:    []string{RoleTargetOut},
			Components: components(RoleVelocityIn),
			Matched:    [][2]string{{RoleSourceIn, RoleTargetOut}},
			Uniforms:   []string{UniformDT, UniformDissipation},
			Source:     advectSource,
			Cell:       advectCell,
		},
		&Kernel{
			Name:       Divergence,
			Inputs:     []string{RoleVelocityIn},
			Outputs:    []string{RoleDivergenceOut},
			Components: components(RoleVelocityIn, RoleDivergenceOut),
			Source:     divergenceSource,
			Cell:       divergenceCell,
		},
		&Kernel{
			Name:       Jacobi,
			Inputs:     []string{RoleDivergenceIn, RolePressureIn},
			Outputs:    []string{RolePressureOut},
			Components: components(RoleDivergenceIn, RolePressureIn, RolePressureOut),
			Source:     jacobiSource,
			Cell:       jacobiCell,
		},
		&Kernel{
			Name:       Gradient,
			Inputs:     []string{RoleVelocityIn, RolePressureIn},
			Outputs:    []string{RoleVelocityOut},
			Components: components(RoleVelocityIn, RolePressureIn, RoleVelocityOut),
			Source:     gradientSource,
			Cell:       gradientCell,
		},
	)
	if err != nil {
		panic(err)
	}
	return l
}

func clearCell(x, y int, _, out []*field.Buffer, u *Uniforms) {
	dst := out[0]
	base := dst.Index(x, y)
	for c := 0; c < dst.Components; c++ {
		dst.Data[base+c] = u.ClearValue
	}
}

func buoyancyCell(x, y int, in, out []*field.Buffer, u *Uniforms) {
	vel, temp, dens := in[0], in[1], in[2]
	t := temp.At(x, y, 0)
	d := dens.At(x, y, 0)
	vx := vel.At(x, y, 0)
	vy := vel.At(x, y, 1)
	vy += u.DT * (u.Lift*(t-u.Ambient) - u.Weight*d)
	out[0].Set(x, y, 0, vx)
	out[0].Set(x, y, 1, vy)
}

func impulseCell(x, y int, _, out []*field.Buffer, u *Uniforms) {
	if u.SourceRadius <= 0 {
		return
	}
	dx := float32(x) - u.SourceX
	dy := float32(y) - u.SourceY
	r := math32.Sqrt(dx*dx + dy*dy)
	if r >= u.SourceRadius {
		return
	}
	falloff := 1 - r/u.SourceRadius
	temp, dens := out[0], out[1]
	temp.Set(x, y, 0, math32.Max(0, temp.At(x, y, 0)+u.DT*u.HeatRate*falloff))
	dens.Set(x, y, 0, math32.Max(0, dens.At(x, y, 0)+u.DT*u.SootRate*falloff))
}

// advectCell traces the cell centre back along the velocity and samples the
// source there. Scalar quantities are kept non-negative.
func advectCell(x, y int, in, out []*field.Buffer, u *Uniforms) {
	vel, src, dst := in[0], in[1], out[0]
	px := float32(x) - u.DT*vel.At(x, y, 0)
	py := float32(y) - u.DT*vel.At(x, y, 1)
	base := dst.Index(x, y)
	for c := 0; c < dst.Components; c++ {
		v := u.Dissipation * src.Sample(px, py, c)
		if dst.Components == 1 {
			v = math32.Max(0, v)
		}
		dst.Data[base+c] = v
	}
}

func divergenceCell(x, y int, in, out []*field.Buffer, _ *Uniforms) {
	vel := in[0]
	left := vel.Load(x-1, y, 0)
	right := vel.Load(x+1, y, 0)
	bottom := vel.Load(x, y-1, 1)
	top := vel.Load(x, y+1, 1)
	out[0].Set(x, y, 0, 0.5*((right-left)+(top-bottom)))
}

func jacobiCell(x, y int, in, out []*field.Buffer, _ *Uniforms) {
	div, p := in[0], in[1]
	sum := p.Load(x-1, y, 0) + p.Load(x+1, y, 0) + p.Load(x, y-1, 0) + p.Load(x, y+1, 0)
	out[0].Set(x, y, 0, (sum-div.At(x, y, 0))*0.25)
}

func gradientCell(x, y int, in, out []*field.Buffer, _ *Uniforms) {
	vel, p := in[0], in[1]
	gx := 0.5 * (p.Load(x+1, y, 0) - p.Load(x-1, y, 0))
	gy := 0.5 * (p.Load(x, y+1, 0) - p.Load(x, y-1, 0))
	out[0].Set(x, y, 0, vel.At(x, y, 0)-gx)
	out[0].Set(x, y, 1, vel.At(x, y, 1)-gy)
}
