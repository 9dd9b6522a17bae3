package main

import (
	"fmt"
	"runtime"
)

// PanicError carries a recovered panic and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Safe runs f and turns a panic into a *PanicError so one bad file cannot take
// down a whole worker pool.
func Safe(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 100000)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: r, Stack: buf[:n]}
		}
	}()
	return f()
}
