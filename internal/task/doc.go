// Package task is the record-processing runtime of a cross-reference build.
//
// A RecordFileReader streams the records of one or more record files into a
// Channel. Run drains the channel with a pool of workers. The first error from
// the reader or any worker cancels the run; there is no other cancellation.
package task
