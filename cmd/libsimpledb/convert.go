package main

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// goString copies a C string; ok is false for NULL.
func goString(p *C.char) (s string, ok bool) {
	if p == nil {
		return "", false
	}
	return C.GoString(p), true
}

// cString returns a malloc'd copy of s, released with db_free_string.
func cString(s string) *C.char {
	return C.CString(s)
}

// cStrings builds a malloc'd array of malloc'd copies, released with db_free_keys.
func cStrings(ss []string) **C.char {
	if len(ss) == 0 {
		return nil
	}
	arr := (**C.char)(C.malloc(C.size_t(len(ss)) * C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	out := unsafe.Slice(arr, len(ss))
	for i, s := range ss {
		out[i] = C.CString(s)
	}
	return arr
}

// goStrings copies count entries of a C string array.
func goStrings(arr **C.char, count C.size_t) []string {
	if arr == nil {
		return nil
	}
	ss := make([]string, 0, int(count))
	for _, p := range unsafe.Slice(arr, int(count)) {
		ss = append(ss, C.GoString(p))
	}
	return ss
}

// freeStrings releases an array built by cStrings.
func freeStrings(arr **C.char, count C.size_t) {
	if arr == nil {
		return
	}
	for _, p := range unsafe.Slice(arr, int(count)) {
		C.free(unsafe.Pointer(p))
	}
	C.free(unsafe.Pointer(arr))
}

func freeString(p *C.char) {
	C.free(unsafe.Pointer(p))
}

func newCount() *C.size_t {
	return new(C.size_t)
}
