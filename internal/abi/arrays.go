//go:build cgo

package abi

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// goStrings copies a NULL-terminated array of C strings into Go memory. A
// NULL array yields nil.
func goStrings(arr **C.char) []string {
	if arr == nil {
		return nil
	}
	var out []string
	for p := arr; *p != nil; p = (**C.char)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p))) {
		out = append(out, C.GoString(*p))
	}
	return out
}

// borrowed views len bytes of host memory without copying. The view is only
// valid until the calling entry point returns.
func borrowed(buf *C.char, n C.uint) []byte {
	if buf == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(n))
}
