// Copyright (c) 2016-2023 The Decred developers.

/*
Package cl implements search.Backend on OpenCL.

The backend requires cgo and an OpenCL ICD loader and is only compiled with
the opencl build tag:

	go build -tags opencl

Each handle returned by the backend wraps exactly one OpenCL object and
releases it with the matching clRelease* call.  Errors returned by the
OpenCL runtime are wrapped with the name of the failing call.
*/
package cl
