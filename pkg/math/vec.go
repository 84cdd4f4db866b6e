package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return clean(math.Round(v*p) / p)
}

// clean turns negative zero into zero so "-0.000000" never reaches a document.
func clean(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}

// RoundVec3 rounds every component of v.
func RoundVec3(v mgl64.Vec3, places int) mgl64.Vec3 {
	return mgl64.Vec3{Round(v[0], places), Round(v[1], places), Round(v[2], places)}
}

// RoundVec2 rounds every component of v.
func RoundVec2(v mgl64.Vec2, places int) mgl64.Vec2 {
	return mgl64.Vec2{Round(v[0], places), Round(v[1], places)}
}
