package dist

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// digamma is ψ(x), the logarithmic derivative of the gamma function.
func digamma(x float64) float64 {
	return mathext.Digamma(x)
}

// trigamma is ψ′(x), computed as the Hurwitz zeta value ζ(2, x).
func trigamma(x float64) float64 {
	return mathext.Zeta(2, x)
}

// lgamma is log Γ(x) for positive arguments, discarding the sign.
func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)

	return v
}

// isBadValue reports a non-finite candidate (NaN or ±∞).
func isBadValue(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
