// Package numeric provides the small derivative-free root-finder and
// minimizer the insurance and optimizer packages are built on. Neither
// routine depends on an external solver: gonum ships an optimize package,
// but the spec this module implements calls for explicit, iteration-capped
// implementations so the cap and convergence behavior stay auditable.
package numeric

import (
	"fmt"
	"math"
)

// SecantResult carries the solved value plus the trail needed to decide
// whether the search actually converged.
type SecantResult struct {
	X          float64
	FX         float64
	Iterations int
	Converged  bool
}

// NoConvergeError reports a secant search that exhausted MaxIter without
// driving the residual under Tolerance.
type NoConvergeError struct {
	Residual   float64
	Tolerance  float64
	Iterations int
}

func (e *NoConvergeError) Error() string {
	return fmt.Sprintf("secant: no convergence after %d iterations (residual %.4f, tolerance %.4f)",
		e.Iterations, e.Residual, e.Tolerance)
}

// MaxSecantIterations is the iteration cap of the classic two-point secant
// method as used for the insurance premium search. It is never exceeded;
// reaching it while |f(x)| > tolerance is a reported failure, not a panic.
const MaxSecantIterations = 15

// Secant finds x such that f(x) ~= 0, starting from the bracket (x0, x1),
// stopping once |f(x1)| <= tol or after MaxSecantIterations steps.
//
// https://hplgit.github.io/prog4comp/doc/pub/._p4c-bootstrap-Python028.html
func Secant(f func(float64) float64, x0, x1, tol float64) (SecantResult, error) {
	fx0 := f(x0)
	fx1 := f(x1)

	iter := 0
	x := x0
	for math.Abs(fx1) > tol && iter < MaxSecantIterations {
		denom := (fx1 - fx0) / (x1 - x0)
		x = x1 - fx1/denom

		x0, x1 = x1, x
		fx0, fx1 = fx1, f(x1)
		iter++
	}

	if math.Abs(fx1) > tol {
		return SecantResult{X: x1, FX: fx1, Iterations: iter, Converged: false},
			&NoConvergeError{Residual: math.Abs(fx1), Tolerance: tol, Iterations: iter}
	}
	return SecantResult{X: x1, FX: fx1, Iterations: iter, Converged: true}, nil
}
