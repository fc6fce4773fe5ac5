package kernel

import "strings"

// Every device entry point takes (width, height, components) first, where
// components belongs to the first output buffer, then one pointer per role in
// Roles order, then one float per uniform in Uniforms order. Storage is
// float32 unless the program is built with -DUSE_HALF.
const sourceHeader = `#ifdef USE_HALF
#define STORAGE half
#define LOAD(buf, i) vload_half((i), (buf))
#define STORE(buf, i, v) vstore_half((v), (i), (buf))
#else
#define STORAGE float
#define LOAD(buf, i) ((buf)[(i)])
#define STORE(buf, i, v) ((buf)[(i)] = (v))
#endif

inline float load_clamped(__global const STORAGE* buf, int x, int y, int c,
    int width, int height, int comps)
{
    x = clamp(x, 0, width - 1);
    y = clamp(y, 0, height - 1);
    return LOAD(buf, (y * width + x) * comps + c);
}

inline float sample_bilinear(__global const STORAGE* buf, float x, float y, int c,
    int width, int height, int comps)
{
    float fx = floor(x);
    float fy = floor(y);
    float tx = x - fx;
    float ty = y - fy;
    int x0 = (int)fx;
    int y0 = (int)fy;
    float v00 = load_clamped(buf, x0, y0, c, width, height, comps);
    float v10 = load_clamped(buf, x0 + 1, y0, c, width, height, comps);
    float v01 = load_clamped(buf, x0, y0 + 1, c, width, height, comps);
    float v11 = load_clamped(buf, x0 + 1, y0 + 1, c, width, height, comps);
    float bottom = mix(v00, v10, tx);
    float top = mix(v01, v11, tx);
    return mix(bottom, top, ty);
}
`

const clearSource = `__kernel void clear(
    const int width, const int height, const int components,
    __global STORAGE* field_out,
    const float clear_value)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int base = (y * width + x) * components;
    for (int c = 0; c < components; c++) {
        STORE(field_out, base + c, clear_value);
    }
}
`

const buoyancySource = `__kernel void buoyancy(
    const int width, const int height, const int components,
    __global const STORAGE* velocity_in,
    __global const STORAGE* temperature_in,
    __global const STORAGE* density_in,
    __global STORAGE* velocity_out,
    const float dt, const float lift, const float weight, const float ambient)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int i = y * width + x;
    float t = LOAD(temperature_in, i);
    float d = LOAD(density_in, i);
    float vx = LOAD(velocity_in, 2 * i);
    float vy = LOAD(velocity_in, 2 * i + 1);
    vy += dt * (lift * (t - ambient) - weight * d);
    STORE(velocity_out, 2 * i, vx);
    STORE(velocity_out, 2 * i + 1, vy);
}
`

const impulseSource = `__kernel void impulse(
    const int width, const int height, const int components,
    __global STORAGE* temperature_out,
    __global STORAGE* density_out,
    const float dt, const float source_x, const float source_y,
    const float source_radius, const float heat_rate, const float soot_rate)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height || source_radius <= 0.0f) {
        return;
    }
    float dx = (float)x - source_x;
    float dy = (float)y - source_y;
    float r = sqrt(dx * dx + dy * dy);
    if (r >= source_radius) {
        return;
    }
    float falloff = 1.0f - r / source_radius;
    int i = y * width + x;
    STORE(temperature_out, i, fmax(0.0f, LOAD(temperature_out, i) + dt * heat_rate * falloff));
    STORE(density_out, i, fmax(0.0f, LOAD(density_out, i) + dt * soot_rate * falloff));
}
`

const advectSource = `__kernel void advect(
    const int width, const int height, const int components,
    __global const STORAGE* velocity_in,
    __global const STORAGE* source_in,
    __global STORAGE* target_out,
    const float dt, const float dissipation)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int i = y * width + x;
    float px = (float)x - dt * LOAD(velocity_in, 2 * i);
    float py = (float)y - dt * LOAD(velocity_in, 2 * i + 1);
    for (int c = 0; c < components; c++) {
        float v = dissipation * sample_bilinear(source_in, px, py, c, width, height, components);
        if (components == 1) {
            v = fmax(0.0f, v);
        }
        STORE(target_out, i * components + c, v);
    }
}
`

const divergenceSource = `__kernel void divergence(
    const int width, const int height, const int components,
    __global const STORAGE* velocity_in,
    __global STORAGE* divergence_out)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    float left = load_clamped(velocity_in, x - 1, y, 0, width, height, 2);
    float right = load_clamped(velocity_in, x + 1, y, 0, width, height, 2);
    float bottom = load_clamped(velocity_in, x, y - 1, 1, width, height, 2);
    float top = load_clamped(velocity_in, x, y + 1, 1, width, height, 2);
    STORE(divergence_out, y * width + x, 0.5f * ((right - left) + (top - bottom)));
}
`

const jacobiSource = `__kernel void jacobi(
    const int width, const int height, const int components,
    __global const STORAGE* divergence_in,
    __global const STORAGE* pressure_in,
    __global STORAGE* pressure_out)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    float sum = load_clamped(pressure_in, x - 1, y, 0, width, height, 1)
        + load_clamped(pressure_in, x + 1, y, 0, width, height, 1)
        + load_clamped(pressure_in, x, y - 1, 0, width, height, 1)
        + load_clamped(pressure_in, x, y + 1, 0, width, height, 1);
    int i = y * width + x;
    STORE(pressure_out, i, (sum - LOAD(divergence_in, i)) * 0.25f);
}
`

const gradientSource = `__kernel void gradient(
    const int width, const int height, const int components,
    __global const STORAGE* velocity_in,
    __global const STORAGE* pressure_in,
    __global STORAGE* velocity_out)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    float gx = 0.5f * (load_clamped(pressure_in, x + 1, y, 0, width, height, 1)
        - load_clamped(pressure_in, x - 1, y, 0, width, height, 1));
    float gy = 0.5f * (load_clamped(pressure_in, x, y + 1, 0, width, height, 1)
        - load_clamped(pressure_in, x, y - 1, 0, width, height, 1));
    int i = y * width + x;
    STORE(velocity_out, 2 * i, LOAD(velocity_in, 2 * i) - gx);
    STORE(velocity_out, 2 * i + 1, LOAD(velocity_in, 2 * i + 1) - gy);
}
`

// ProgramSource concatenates the shared helpers and the sources of kernels
// into one compilation unit.
func ProgramSource(kernels []*Kernel) string {
	var b strings.Builder
	b.WriteString(sourceHeader)
	for _, k := range kernels {
		if k.Source == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(k.Source)
	}
	return b.String()
}
