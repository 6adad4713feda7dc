package fibonacci

import (
	"context"
	"net/http"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/internal/respond"
	"github.com/gopub/fibonacci/utility"
)

func (s *Server) bindRoutes() {
	r := s.Use(Logger)
	r.Get("fibonacci/{n}", s.handleFibonacci).SetDescription("Fibonacci number of n")
	r.Get("age/{year}", handleAge).SetDescription("Age at the reference year")
	r.Get("email/{address}", handleEmail).SetDescription("Check the shape of an email address")
	r.Get("ws/fibonacci", s.handleWebSocket).SetDescription("Fibonacci over websocket")

	wasm := r.Group("wasm")
	wasm.Get("fibonacci/{n}", s.handleWASMFibonacci).SetDescription("Fibonacci number of n computed by the wasm module")
	wasm.Get("age/{year}", s.handleWASMAge).SetDescription("Age computed by the wasm module")
	wasm.Get("email/{address}", s.handleWASMEmail).SetDescription("Email shape checked by the wasm module")

	s.bindSystemRoutes(r)
}

// Compute returns F(n) with the configured algorithm.
// It gives up when ctx is done, the computation itself keeps running until it returns
// and keeps its slot until then, so at most Config.MaxComputations run at once.
func (s *Server) Compute(ctx context.Context, n uint32) (uint32, error) {
	if !s.config.Checked {
		// Config.Validate only allows the iterative algorithm here
		return s.run(ctx, n, func() (uint32, error) {
			return s.config.Algorithm.Func()(n), nil
		})
	}
	if n > fib.MaxIndex {
		return 0, &fib.RangeError{Index: n}
	}
	return s.run(ctx, n, func() (uint32, error) {
		return fib.Checked(n, s.config.Algorithm)
	})
}

func (s *Server) run(ctx context.Context, n uint32, f func() (uint32, error)) (uint32, error) {
	type result struct {
		v   uint32
		err error
	}
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		contextLogger(ctx).Warnf("No slot for fibonacci(%d): %v", n, ctx.Err())
		return 0, errors.Format(http.StatusServiceUnavailable, "compute fibonacci(%d): too many computations: %v", n, ctx.Err())
	}
	c := make(chan result, 1)
	go func() {
		defer func() { <-s.slots }()
		v, err := f()
		c <- result{v: v, err: err}
	}()
	select {
	case r := <-c:
		return r.v, r.err
	case <-ctx.Done():
		contextLogger(ctx).Warnf("Abandon fibonacci(%d): %v", n, ctx.Err())
		return 0, errors.Format(http.StatusServiceUnavailable, "compute fibonacci(%d): %v", n, ctx.Err())
	}
}

func (s *Server) handleFibonacci(ctx context.Context, req *Request) Responder {
	n, err := req.Uint("n", 32)
	if err != nil {
		return Error(req, err)
	}
	v, err := s.Compute(ctx, uint32(n))
	if err != nil {
		return Error(req, err)
	}
	return fibonacciResponse(req, uint32(n), v)
}

func fibonacciResponse(req *Request, n, v uint32) Responder {
	return negotiate(req, http.StatusOK, &respond.Fibonacci{N: n, Result: v})
}

func handleAge(_ context.Context, req *Request) Responder {
	year, err := req.Uint("year", 16)
	if err != nil {
		return Error(req, err)
	}
	age, err := utility.CalculateAge(uint16(year))
	if err != nil {
		return Error(req, err)
	}
	return negotiate(req, http.StatusOK, &respond.Age{BirthYear: uint16(year), Age: age})
}

func handleEmail(_ context.Context, req *Request) Responder {
	address := req.Params().String("address")
	return negotiate(req, http.StatusOK, &respond.Email{Email: address, Valid: utility.ValidateEmail(address)})
}

func (s *Server) handleWebSocket(_ context.Context, req *Request) Responder {
	return Handle(req, s.ws)
}
