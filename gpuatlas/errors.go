package gpuatlas

import "errors"

// ErrCapacityExceeded is returned by any append operation that would write past
// the buffer's fixed capacity. No partial state is written when this occurs.
var ErrCapacityExceeded = errors.New("gpuatlas: capacity exceeded")

// ErrFinalizeEmpty is returned by Finalize when it is called with zero pending
// segments. The pool's phase is left unchanged (PhaseLoading unless an earlier
// Finalize succeeded).
var ErrFinalizeEmpty = errors.New("gpuatlas: finalize called with no pending segments")

// ErrNotFinalized names the condition of a pool still in PhaseLoading. No
// function in this module returns it: the cull and render drivers log and skip
// the frame instead.
var ErrNotFinalized = errors.New("gpuatlas: pool is not finalized")

// ErrDeviceLost names a GPU device-lost condition. No function in this module
// returns or wraps it: errors from wgpu calls are passed up wrapped with
// context, not mapped to this value. Nothing inside the pool retries a failed
// wgpu call.
var ErrDeviceLost = errors.New("gpuatlas: device lost")
