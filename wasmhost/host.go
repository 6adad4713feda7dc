// Package wasmhost runs the wasm build of the calculator (see cmd/fibwasm) with wazero.
//
// The module is compiled once. Every call runs in a fresh anonymous instance which
// is closed afterwards, so concurrent calls never share linear memory.
package wasmhost

import (
	"context"
	"net/http"
	"os"
	"sort"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/utility"
	"github.com/gopub/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const (
	FuncFibonacci     = "fibonacci"
	FuncCalculateAge  = "calculate_age"
	FuncValidateEmail = "validate_email"
	FuncAllocate      = "allocate"
)

const ErrNotExported errors.String = "function not exported"

var logger = log.Default()

func SetLogger(l *log.Logger) {
	logger = l
}

type ExportError struct {
	Name string
}

func (e *ExportError) Error() string {
	return string(ErrNotExported) + ": " + e.Name
}

func (e *ExportError) Code() int {
	return http.StatusNotFound
}

func (e *ExportError) Is(target error) bool {
	return target == ErrNotExported
}

type Module struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	config   wazero.ModuleConfig
}

// New compiles wasm and prepares WASI. Calls are aborted when their context is done.
func New(ctx context.Context, wasm []byte) (*Module, error) {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		r.Close(ctx)
		return nil, errors.Wrapf(err, "instantiate wasi")
	}
	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		r.Close(ctx)
		return nil, errors.Wrapf(err, "compile")
	}
	m := &Module{
		runtime:  r,
		compiled: compiled,
		// Reactors built with -buildmode=c-shared export _initialize, it is skipped when absent
		config: wazero.NewModuleConfig().
			WithName("").
			WithStartFunctions("_initialize").
			WithStdout(os.Stdout).
			WithStderr(os.Stderr),
	}
	logger.Debugf("Compiled wasm module, exports=%v", m.Exports())
	return m, nil
}

// Load reads and compiles the module at path
func Load(ctx context.Context, path string) (*Module, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return New(ctx, wasm)
}

// Exports returns the sorted names of exported functions
func (m *Module) Exports() []string {
	var l []string
	for name := range m.compiled.ExportedFunctions() {
		l = append(l, name)
	}
	sort.Strings(l)
	return l
}

func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

func (m *Module) call(ctx context.Context, name string, f func(mod api.Module, fn api.Function) error) error {
	if _, ok := m.compiled.ExportedFunctions()[name]; !ok {
		return &ExportError{Name: name}
	}
	mod, err := m.runtime.InstantiateModule(ctx, m.compiled, m.config)
	if err != nil {
		return m.callError(ctx, name, err)
	}
	defer func() {
		if err := mod.Close(context.Background()); err != nil {
			logger.Errorf("Close instance: %v", err)
		}
	}()
	if err = f(mod, mod.ExportedFunction(name)); err != nil {
		return m.callError(ctx, name, err)
	}
	return nil
}

func (m *Module) callError(ctx context.Context, name string, err error) error {
	if errors.GetCode(err) > 0 {
		return err
	}
	if ctx.Err() != nil {
		return errors.Format(http.StatusServiceUnavailable, "call %s: %v", name, ctx.Err())
	}
	return errors.Format(http.StatusInternalServerError, "call %s: %v", name, err)
}

// Fibonacci calls fibonacci(i32) i32, values above fib.MaxIndex wrap like fib.Compute
func (m *Module) Fibonacci(ctx context.Context, n uint32) (uint32, error) {
	var result uint32
	err := m.call(ctx, FuncFibonacci, func(_ api.Module, fn api.Function) error {
		res, err := fn.Call(ctx, api.EncodeU32(n))
		if err != nil {
			return err
		}
		result = api.DecodeU32(res[0])
		return nil
	})
	return result, err
}

// CalculateAge calls calculate_age(i32) i32 whose negative result means an invalid year
func (m *Module) CalculateAge(ctx context.Context, birthYear uint16) (uint16, error) {
	var age uint16
	err := m.call(ctx, FuncCalculateAge, func(_ api.Module, fn api.Function) error {
		res, err := fn.Call(ctx, api.EncodeU32(uint32(birthYear)))
		if err != nil {
			return err
		}
		v := api.DecodeI32(res[0])
		if v < 0 {
			return &utility.YearError{Year: birthYear}
		}
		age = uint16(v)
		return nil
	})
	return age, err
}

// ValidateEmail copies s into a buffer from allocate(i32) i32 and calls validate_email(ptr, len) i32
func (m *Module) ValidateEmail(ctx context.Context, s string) (bool, error) {
	var valid bool
	err := m.call(ctx, FuncValidateEmail, func(mod api.Module, fn api.Function) error {
		ptr, size := uint32(0), uint32(len(s))
		if size > 0 {
			alloc := mod.ExportedFunction(FuncAllocate)
			if alloc == nil {
				return &ExportError{Name: FuncAllocate}
			}
			res, err := alloc.Call(ctx, api.EncodeU32(size))
			if err != nil {
				return err
			}
			ptr = api.DecodeU32(res[0])
			mem := mod.Memory()
			if mem == nil || !mem.Write(ptr, []byte(s)) {
				return errors.Format(http.StatusInternalServerError, "write %d bytes at %d: out of memory range", size, ptr)
			}
		}
		res, err := fn.Call(ctx, api.EncodeU32(ptr), api.EncodeU32(size))
		if err != nil {
			return err
		}
		valid = api.DecodeU32(res[0]) != 0
		return nil
	})
	return valid, err
}
