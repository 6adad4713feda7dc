//go:build wasip1

// Command fibwasm is the wasm build of the calculator.
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o fib.wasm ./cmd/fibwasm
//
// Strings are passed as (ptr, len) pairs in a buffer obtained from allocate.
package main

import (
	"unsafe"

	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/utility"
)

// main is required by the toolchain, the module is a reactor and never runs it.
func main() {}

// buffers keeps allocated memory reachable until deallocate
var buffers = map[uint32][]byte{}

//go:wasmexport fibonacci
func fibonacci(n uint32) uint32 {
	return fib.Compute(n)
}

// calculate_age returns -1 when birthYear is in the future
//
//go:wasmexport calculate_age
func calculateAge(birthYear uint32) int32 {
	if birthYear > uint32(utility.ReferenceYear) {
		return -1
	}
	age, err := utility.CalculateAge(uint16(birthYear))
	if err != nil {
		return -1
	}
	return int32(age)
}

//go:wasmexport validate_email
func validateEmail(ptr, size uint32) uint32 {
	if utility.ValidateEmail(ptrToString(ptr, size)) {
		return 1
	}
	return 0
}

//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	buffers[ptr] = buf
	return ptr
}

//go:wasmexport deallocate
func deallocate(ptr uint32) {
	delete(buffers, ptr)
}

func ptrToString(ptr, size uint32) string {
	if size == 0 {
		return ""
	}
	return unsafe.String((*byte)(unsafe.Pointer(uintptr(ptr))), size)
}
