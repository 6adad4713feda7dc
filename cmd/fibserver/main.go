// Command fibserver serves GET /fibonacci/{n}.
//
//	fibserver --addr 127.0.0.1:3000 --wasm fib.wasm
//	fibserver --config fib.yaml
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gopub/fibonacci"
	"github.com/gopub/fibonacci/wasmhost"
	"github.com/gopub/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var logger = log.Default().Derive("fibserver")

func main() {
	configFile := pflag.StringP("config", "c", "", "config file, keys are fib.*")
	pflag.String("addr", "127.0.0.1:3000", "listen address")
	pflag.String("algorithm", "recursive", "recursive or iterative")
	pflag.Bool("checked", true, "reject n above 47")
	pflag.String("wasm", "", "wasm module served under /wasm")
	pflag.Duration("timeout", 30*time.Second, "request timeout")
	pflag.Int("max-computations", runtime.GOMAXPROCS(0), "computations in flight")
	pflag.Parse()

	bindFlags(map[string]string{
		"fib.addr":            "addr",
		"fib.algorithm":       "algorithm",
		"fib.checked":         "checked",
		"fib.wasm_path":       "wasm",
		"fib.request_timeout": "timeout",

		"fib.max_computations": "max-computations",
	})
	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		if err := viper.ReadInConfig(); err != nil {
			logger.Fatalf("Read config %s: %v", *configFile, err)
		}
	}

	config, err := fibonacci.LoadConfig()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	s := fibonacci.NewServer(config)
	if config.WASMPath != "" {
		m, err := wasmhost.Load(context.Background(), config.WASMPath)
		if err != nil {
			logger.Fatalf("Load wasm module: %v", err)
		}
		defer m.Close(context.Background())
		s.SetWASMModule(m)
		logger.Infof("Loaded %s, exports=%v", config.WASMPath, m.Exports())
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			logger.Errorf("Shutdown: %v", err)
		}
	}()

	if err = s.Run(config.Addr); err != nil {
		logger.Fatalf("Run: %v", err)
	}
}

// bindFlags lets changed flags override config file values, otherwise flag defaults apply
func bindFlags(keyToFlag map[string]string) {
	for key, name := range keyToFlag {
		if err := viper.BindPFlag(key, pflag.Lookup(name)); err != nil {
			logger.Fatalf("Bind flag %s: %v", name, err)
		}
	}
}
