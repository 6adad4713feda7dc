package fibonacci

import (
	"context"
	"net/http"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/internal/respond"
)

// WASMModule calls the exports of the wasm build of this service, see package wasmhost
type WASMModule interface {
	Fibonacci(ctx context.Context, n uint32) (uint32, error)
	CalculateAge(ctx context.Context, birthYear uint16) (uint16, error)
	ValidateEmail(ctx context.Context, s string) (bool, error)
}

func (s *Server) wasmModule() (WASMModule, error) {
	if s.wasm == nil {
		return nil, errors.NotFound("wasm module is not loaded")
	}
	return s.wasm, nil
}

func (s *Server) handleWASMFibonacci(ctx context.Context, req *Request) Responder {
	m, err := s.wasmModule()
	if err != nil {
		return Error(req, err)
	}
	n, err := req.Uint("n", 32)
	if err != nil {
		return Error(req, err)
	}
	if s.config.Checked && uint32(n) > fib.MaxIndex {
		return Error(req, &fib.RangeError{Index: uint32(n)})
	}
	v, err := m.Fibonacci(ctx, uint32(n))
	if err != nil {
		return Error(req, err)
	}
	return fibonacciResponse(req, uint32(n), v)
}

func (s *Server) handleWASMAge(ctx context.Context, req *Request) Responder {
	m, err := s.wasmModule()
	if err != nil {
		return Error(req, err)
	}
	year, err := req.Uint("year", 16)
	if err != nil {
		return Error(req, err)
	}
	age, err := m.CalculateAge(ctx, uint16(year))
	if err != nil {
		return Error(req, err)
	}
	return negotiate(req, http.StatusOK, &respond.Age{BirthYear: uint16(year), Age: age})
}

func (s *Server) handleWASMEmail(ctx context.Context, req *Request) Responder {
	m, err := s.wasmModule()
	if err != nil {
		return Error(req, err)
	}
	address := req.Params().String("address")
	valid, err := m.ValidateEmail(ctx, address)
	if err != nil {
		return Error(req, err)
	}
	return negotiate(req, http.StatusOK, &respond.Email{Email: address, Valid: valid})
}
