// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Normalize scales a value from an interval to [-1, 1]. Values outside
// the interval are clipped to the interval first.
func Normalize(value float64, interval r1.Interval) float64 {
	if interval.Max == interval.Min {
		return 0
	}
	value = ClipInterval(value, interval)
	return 2*(value-interval.Min)/(interval.Max-interval.Min) - 1
}

// WrapAngle normalizes an angle in radians to [-π, π)
func WrapAngle(th float64) float64 {
	th = math.Mod(th+math.Pi, 2*math.Pi)
	if th < 0 {
		th += 2 * math.Pi
	}
	return th - math.Pi
}
