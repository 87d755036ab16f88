// Package resource bounds the resources a cross-reference build may use.
//
//   - Workers: a weighted semaphore bounding concurrent record workers
//   - Memory: a blocking budget for record bytes read but not yet processed
//   - IO: a token bucket limiting record file read throughput
//
// A nil *Controller imposes no limits.
package resource
