// Package surface pools RGBA drawing buffers.
//
// Requested sizes are rounded up to a size class (a multiple of BucketSize)
// so that near-identical requests share buffers. Each buffer is Idle, InUse
// or Evicted. Only idle buffers are ever evicted, oldest lastUsedAt first.
//
// The pool is also available as a process-wide value through Init, Shared
// and Shutdown, and a Janitor can run Optimize on a schedule.
package surface
