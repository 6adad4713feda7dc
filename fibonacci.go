// Package fibonacci serves the Fibonacci calculator and its companion utilities over HTTP.
//
//	s := fibonacci.NewServer(fibonacci.DefaultConfig())
//	s.Run("127.0.0.1:3000")
//
// GET /fibonacci/10 answers "Fibonacci (10) = 55".
package fibonacci

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gopub/fibonacci/internal/respond"
	"github.com/gopub/fibonacci/router"
	"github.com/gopub/fibonacci/wasmhost"
	"github.com/gopub/fibonacci/ws"
	"github.com/gopub/log"
)

// Version is overridden at link time with -ldflags "-X github.com/gopub/fibonacci.Version=..."
var Version = "dev"

var logger *log.Logger

func init() {
	logger = log.Default().Derive("Fibonacci")
	logger.SetFlags(log.LstdFlags - log.Lfunction - log.Lshortfile)
	router.SetLogger(logger)
	respond.SetLogger(logger)
	wasmhost.SetLogger(logger)
	ws.SetLogger(logger)
}

func NewUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// contextLogger returns the request scoped logger built by Server.ServeHTTP
func contextLogger(ctx context.Context) *log.Logger {
	if l := log.FromContext(ctx); l != nil {
		return l
	}
	return logger
}
