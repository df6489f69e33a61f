// Package scheduler provides the cooperative loop the component runtime
// runs on and the priority-bucketed update queue that coalesces state
// changes into one patch per host per tick.
//
// # Loop
//
// Loop is a single-goroutine task loop. All runtime state is touched only
// from the goroutine that calls Run or RunUntil. The only cross-goroutine
// entry point is Post, which Async uses to deliver the result of blocking
// work (file and object-store reads) back onto the loop.
//
// # Queue
//
// Queue keeps three FIFO buckets. Add schedules one flush tick on the Loop
// if none is pending. A flush drains high, then medium, then low; work
// enqueued into a bucket that was already drained is left for the next
// tick rather than looping synchronously.
package scheduler
