package fibonacci

import (
	"runtime"
	"time"

	"github.com/gopub/environ"
	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/fib"
)

const (
	defaultAddr           = "127.0.0.1:3000"
	defaultRequestTimeout = 30 * time.Second
	defaultWSReadTimeout  = 60 * time.Second
)

type Config struct {
	Addr           string
	RequestTimeout time.Duration
	Algorithm      fib.Algorithm
	// Checked rejects indexes above fib.MaxIndex instead of returning wrapped values
	Checked  bool
	Recovery bool
	// WASMPath is the guest module served under /wasm, empty disables it
	WASMPath      string
	WSReadTimeout time.Duration
	// MaxComputations bounds computations in flight, including the ones abandoned after a timeout
	MaxComputations int
}

func DefaultConfig() *Config {
	return &Config{
		Addr:           defaultAddr,
		RequestTimeout: defaultRequestTimeout,
		Algorithm:      fib.Recursive,
		Checked:        true,
		Recovery:       true,
		WSReadTimeout:  defaultWSReadTimeout,

		MaxComputations: runtime.GOMAXPROCS(0),
	}
}

// LoadConfig reads fib.* keys through environ, falling back to DefaultConfig
func LoadConfig() (*Config, error) {
	d := DefaultConfig()
	alg, err := fib.ParseAlgorithm(environ.String("fib.algorithm", d.Algorithm.String()))
	if err != nil {
		return nil, errors.Wrapf(err, "parse fib.algorithm")
	}
	c := &Config{
		Addr:           environ.String("fib.addr", d.Addr),
		RequestTimeout: environ.Duration("fib.request_timeout", d.RequestTimeout),
		Algorithm:      alg,
		Checked:        environ.Bool("fib.checked", d.Checked),
		Recovery:       environ.Bool("fib.recovery", d.Recovery),
		WASMPath:       environ.String("fib.wasm_path", d.WASMPath),
		WSReadTimeout:  environ.Duration("fib.ws.read_timeout", d.WSReadTimeout),

		MaxComputations: environ.Int("fib.max_computations", d.MaxComputations),
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.BadRequest("request timeout must be positive: %v", c.RequestTimeout)
	}
	if c.WSReadTimeout <= 0 {
		return errors.BadRequest("websocket read timeout must be positive: %v", c.WSReadTimeout)
	}
	if c.MaxComputations <= 0 {
		return errors.BadRequest("max computations must be positive: %d", c.MaxComputations)
	}
	// Unchecked recursion accepts n up to 2^32-1 and would overflow the goroutine stack
	if !c.Checked && c.Algorithm != fib.Iterative {
		return errors.BadRequest("unchecked mode requires the %s algorithm", fib.Iterative)
	}
	return nil
}
