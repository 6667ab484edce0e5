package accel

import (
	"fmt"

	"github.com/nandsim/corevm/sim"
)

// MatMul computes C = A*B by driving a systolic Array through a private
// scheduler: A must be rows x depth and B must be depth x cols. It is a
// pure consumer of the sim package's scheduler/port/connection
// primitives, an external collaborator to the core rather than part of
// it.
func MatMul(a, b [][]int32) ([][]int32, error) {
	rows := len(a)
	if rows == 0 {
		return nil, fmt.Errorf("accel: matrix A has no rows")
	}
	depth := len(a[0])
	for i, row := range a {
		if len(row) != depth {
			return nil, fmt.Errorf("accel: matrix A row %d has %d columns, want %d", i, len(row), depth)
		}
	}
	if len(b) != depth {
		return nil, fmt.Errorf("accel: matrix B has %d rows, want %d to match A's columns", len(b), depth)
	}
	cols := 0
	if depth > 0 {
		cols = len(b[0])
	}
	for i, row := range b {
		if len(row) != cols {
			return nil, fmt.Errorf("accel: matrix B row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	if cols == 0 || depth == 0 {
		out := make([][]int32, rows)
		for r := range out {
			out[r] = make([]int32, cols)
		}
		return out, nil
	}

	bCols := make([][]int32, cols)
	for c := 0; c < cols; c++ {
		bCols[c] = make([]int32, depth)
		for k := 0; k < depth; k++ {
			bCols[c][k] = b[k][c]
		}
	}

	sched := sim.NewScheduler(nil)
	array := NewArray("gemm", rows, cols, 1)
	array.Feed("gemm", 1, a, bCols)
	array.Initialize(sched)

	sched.RunUntil(SettleTime(rows, cols, depth) + 4)

	out := make([][]int32, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]int32, cols)
		for c := 0; c < cols; c++ {
			out[r][c] = int32(array.Result(r, c))
		}
	}
	return out, nil
}
