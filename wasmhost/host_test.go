package wasmhost_test

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/utility"
	"github.com/gopub/fibonacci/wasmhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calcWasm exports fibonacci(i32) i32 as a double recursion and calculate_age(i32) i32 against 2025.
// It has no memory, so validate_email and allocate are absent.
var calcWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32) -> i32
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
	// func: 2 functions of type 0
	0x03, 0x03, 0x02, 0x00, 0x00,
	// export
	0x07, 0x1d, 0x02,
	0x09, 'f', 'i', 'b', 'o', 'n', 'a', 'c', 'c', 'i', 0x00, 0x00,
	0x0d, 'c', 'a', 'l', 'c', 'u', 'l', 'a', 't', 'e', '_', 'a', 'g', 'e', 0x00, 0x01,
	// code
	0x0a, 0x33, 0x02,
	// if n < 2 { n } else { fib(n-1) + fib(n-2) }
	0x1c, 0x00,
	0x20, 0x00, 0x41, 0x02, 0x49,
	0x04, 0x7f,
	0x20, 0x00,
	0x05,
	0x20, 0x00, 0x41, 0x01, 0x6b, 0x10, 0x00,
	0x20, 0x00, 0x41, 0x02, 0x6b, 0x10, 0x00,
	0x6a,
	0x0b, 0x0b,
	// if year > 2025 { -1 } else { 2025 - year }
	0x14, 0x00,
	0x20, 0x00, 0x41, 0xe9, 0x0f, 0x4b,
	0x04, 0x7f,
	0x41, 0x7f,
	0x05,
	0x41, 0xe9, 0x0f, 0x20, 0x00, 0x6b,
	0x0b, 0x0b,
}

// emailWasm exports one page of memory, allocate(i32) i32 always answering 1024
// and validate_email(ptr, len i32) i32 which is 1 iff the string holds exactly one '@'.
var emailWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32) -> i32, (i32, i32) -> i32
	0x01, 0x0c, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	// func
	0x03, 0x03, 0x02, 0x00, 0x01,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export
	0x07, 0x26, 0x03,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x0e, 'v', 'a', 'l', 'i', 'd', 'a', 't', 'e', '_', 'e', 'm', 'a', 'i', 'l', 0x00, 0x01,
	// code
	0x0a, 0x38, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	// for i < len { count += mem[ptr+i] == '@' }; count == 1
	0x30, 0x01, 0x02, 0x7f,
	0x02, 0x40, 0x03, 0x40,
	0x20, 0x02, 0x20, 0x01, 0x4f, 0x0d, 0x01,
	0x20, 0x00, 0x20, 0x02, 0x6a, 0x2d, 0x00, 0x00, 0x41, 0xc0, 0x00, 0x46,
	0x20, 0x03, 0x6a, 0x21, 0x03,
	0x20, 0x02, 0x41, 0x01, 0x6a, 0x21, 0x02,
	0x0c, 0x00,
	0x0b, 0x0b,
	0x20, 0x03, 0x41, 0x01, 0x46,
	0x0b,
}

func newModule(t *testing.T) *wasmhost.Module {
	return compile(t, calcWasm)
}

func compile(t *testing.T, wasm []byte) *wasmhost.Module {
	ctx := context.Background()
	m, err := wasmhost.New(ctx, wasm)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close(ctx) })
	return m
}

func TestNew(t *testing.T) {
	t.Run("Exports", func(t *testing.T) {
		m := newModule(t)
		assert.Equal(t, []string{"calculate_age", "fibonacci"}, m.Exports())
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := wasmhost.New(context.Background(), []byte("not wasm"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	name := filepath.Join(t.TempDir(), "calc.wasm")
	require.NoError(t, os.WriteFile(name, calcWasm, 0o644))
	m, err := wasmhost.Load(ctx, name)
	require.NoError(t, err)
	defer m.Close(ctx)
	v, err := m.Fibonacci(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(55), v)

	_, err = wasmhost.Load(ctx, filepath.Join(t.TempDir(), "missing.wasm"))
	assert.Error(t, err)
}

func TestModule_Fibonacci(t *testing.T) {
	m := newModule(t)
	ctx := context.Background()
	for _, n := range []uint32{0, 1, 2, 5, 10, 20, 25} {
		v, err := m.Fibonacci(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, fib.Compute(n), v, n)
	}
}

func TestModule_FibonacciCancelled(t *testing.T) {
	m := newModule(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.Fibonacci(ctx, 45)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, errors.GetCode(err))

	// The compiled module is still usable
	v, err := m.Fibonacci(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, uint32(144), v)
}

func TestModule_CalculateAge(t *testing.T) {
	m := newModule(t)
	ctx := context.Background()

	age, err := m.CalculateAge(ctx, 1990)
	require.NoError(t, err)
	assert.Equal(t, uint16(35), age)

	age, err = m.CalculateAge(ctx, utility.ReferenceYear)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), age)

	_, err = m.CalculateAge(ctx, utility.ReferenceYear+1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utility.ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, errors.GetCode(err))
}

func TestModule_ValidateEmail(t *testing.T) {
	t.Run("NotExported", func(t *testing.T) {
		m := newModule(t)
		_, err := m.ValidateEmail(context.Background(), "a@b.co")
		require.Error(t, err)
		assert.True(t, errors.Is(err, wasmhost.ErrNotExported))
		assert.Equal(t, http.StatusNotFound, errors.GetCode(err))
	})

	t.Run("Memory", func(t *testing.T) {
		m := compile(t, emailWasm)
		assert.Equal(t, []string{"allocate", "validate_email"}, m.Exports())
		for s, want := range map[string]bool{
			"a@b.co": true,
			"ab.co":  false,
			"a@@b":   false,
			"":       false,
		} {
			valid, err := m.ValidateEmail(context.Background(), s)
			require.NoError(t, err, s)
			assert.Equal(t, want, valid, s)
		}
	})
}

// TestGuest builds cmd/fibwasm and runs every export through the host
func TestGuest(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the wasm guest")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not found")
	}
	name := filepath.Join(t.TempDir(), "fib.wasm")
	cmd := exec.Command(goBin, "build", "-buildmode=c-shared", "-o", name, "./cmd/fibwasm")
	cmd.Dir = ".."
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	ctx := context.Background()
	m, err := wasmhost.Load(ctx, name)
	require.NoError(t, err)
	defer m.Close(ctx)
	assert.Subset(t, m.Exports(), []string{
		wasmhost.FuncAllocate,
		wasmhost.FuncCalculateAge,
		wasmhost.FuncFibonacci,
		wasmhost.FuncValidateEmail,
	})

	v, err := m.Fibonacci(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(55), v)

	age, err := m.CalculateAge(ctx, 1990)
	require.NoError(t, err)
	assert.Equal(t, uint16(35), age)

	_, err = m.CalculateAge(ctx, utility.ReferenceYear+1)
	assert.True(t, errors.Is(err, utility.ErrInvalidInput))

	for s, want := range map[string]bool{
		"tom@example.com": true,
		"tom@example":     false,
		"":                false,
	} {
		valid, err := m.ValidateEmail(ctx, s)
		require.NoError(t, err, s)
		assert.Equal(t, want, valid, s)
	}
}
