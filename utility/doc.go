// Package utility holds the helpers the WASM module exports next to fibonacci.
// They share no logic with package fib.
package utility
