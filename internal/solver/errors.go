package solver

import "errors"

// ErrInfeasible is returned by Solve/Minimize when the search exhausts the
// tree without finding any assignment satisfying every constraint. Mirrors
// the teacher's ErrSearchLimitReached pattern: a package-level sentinel,
// checked with errors.Is.
var ErrInfeasible = errors.New("solver: model is infeasible")
