// Package fib computes Fibonacci numbers over uint32 indexes.
//
// Compute is the reference implementation: plain double recursion with no memo,
// exponential in n. Iterate shares its contract and is used where latency matters.
// Both wrap silently once the result no longer fits in uint32, see MaxIndex.
package fib

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gopub/errors"
)

// MaxIndex is the largest n whose Fibonacci number fits in uint32.
// F(47) = 2971215073, F(48) = 4807526976 > math.MaxUint32.
const MaxIndex uint32 = 47

const ErrOutOfRange errors.String = "fibonacci index out of range"

// Compute returns F(n) with F(0)=0, F(1)=1, F(n)=F(n-1)+F(n-2).
// Recursion depth is n and the number of calls grows as φ^n.
func Compute(n uint32) uint32 {
	if n < 2 {
		return n
	}
	return Compute(n-1) + Compute(n-2)
}

// Iterate returns the same values as Compute, including wrapped ones, in O(n).
func Iterate(n uint32) uint32 {
	var a, b uint32 = 0, 1
	for i := uint32(0); i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// RangeError reports an index above MaxIndex.
type RangeError struct {
	Index uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d > %d", ErrOutOfRange, e.Index, MaxIndex)
}

func (e *RangeError) Code() int {
	return http.StatusBadRequest
}

func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Algorithm selects the function used by Checked.
type Algorithm string

const (
	Recursive Algorithm = "recursive"
	Iterative Algorithm = "iterative"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "", Recursive:
		return Recursive, nil
	case Iterative:
		return Iterative, nil
	default:
		return "", errors.BadRequest("unknown algorithm %q", s)
	}
}

func (a Algorithm) Func() func(uint32) uint32 {
	if a == Iterative {
		return Iterate
	}
	return Compute
}

func (a Algorithm) String() string {
	return string(a)
}

// Checked computes F(n) with a, failing with a *RangeError instead of wrapping.
func Checked(n uint32, a Algorithm) (uint32, error) {
	if n > MaxIndex {
		return 0, &RangeError{Index: n}
	}
	return a.Func()(n), nil
}

// Text formats a result the way the HTTP adapter answers it.
func Text(n, result uint32) string {
	return fmt.Sprintf("Fibonacci (%d) = %d", n, result)
}
