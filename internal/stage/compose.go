package stage

import (
	"fmt"

	"github.com/huier-git/drillplan/internal/duration"
	"github.com/huier-git/drillplan/internal/solver"
	"github.com/huier-git/drillplan/internal/task"
)

// Compose builds the full N-pipe plan onto cat (spec.md §4.3's stage
// sequence: A, B(1)..B(N), C(N)..C(1), D) and returns the stage-cut
// list: each stage call's end-variable, in build order, pushed as it
// returns. N must be >= 1.
func Compose(cat *task.Catalogue, dt *duration.Table, n int) ([]*solver.IntVar, error) {
	if n < 1 {
		return nil, fmt.Errorf("stage: n must be >= 1, got %d", n)
	}

	var cuts []*solver.IntVar

	end, err := A(cat, dt)
	if err != nil {
		return nil, fmt.Errorf("stage A: %w", err)
	}
	cuts = append(cuts, end)

	for i := 1; i <= n; i++ {
		end, err = B(cat, dt, i, From(end))
		if err != nil {
			return nil, fmt.Errorf("stage B(%d): %w", i, err)
		}
		cuts = append(cuts, end)
	}

	for i := n; i >= 1; i-- {
		end, err = C(cat, dt, i, From(end))
		if err != nil {
			return nil, fmt.Errorf("stage C(%d): %w", i, err)
		}
		cuts = append(cuts, end)
	}

	end, err = D(cat, dt, From(end))
	if err != nil {
		return nil, fmt.Errorf("stage D: %w", err)
	}
	cuts = append(cuts, end)

	return cuts, nil
}
