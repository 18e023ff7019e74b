package geo

import "math"

const kmhPerKnot = 1.852

func KnotsToKMH(knots float64) float64 { return knots * kmhPerKnot }

func KMHToKnots(kmh float64) float64 { return kmh / kmhPerKnot }

// CourseCorrection returns the signed turn in degrees, within (-180,180], that
// brings current onto dest. Positive is clockwise.
func CourseCorrection(current, dest float64) float64 {
	d := math.Mod(dest-current, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
