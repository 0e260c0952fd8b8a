package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

const (
	K_PI float32 = 3.14159265358979323846
	// Two times pi.
	K_PI_2 float32 = 2.0 * K_PI
	// Half of pi.
	K_HALF_PI float32 = 0.5 * K_PI

	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	K_RAD2DEG_MULTIPLIER float32 = 180.0 / K_PI

	// Smallest positive number where 1.0 + FLOAT_EPSILON != 0
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

func Clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Wrap maps value into [0, period). Negative values wrap from the top.
func Wrap[T constraints.Float](value, period T) T {
	if period == 0 {
		return value
	}
	r := T(m.Mod(float64(value), float64(period)))
	if r < 0 {
		r += period
	}
	return r
}

func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

func RadToDeg(radians float32) float32 {
	return radians * K_RAD2DEG_MULTIPLIER
}

func Sin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func Cos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

func Tan(x float32) float32 {
	return float32(m.Tan(float64(x)))
}

func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func Sqrt(x float32) float32 {
	return float32(m.Sqrt(float64(x)))
}
