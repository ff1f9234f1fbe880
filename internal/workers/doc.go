// Package workers calculates worker pool sizes for concurrent
// operations such as thumbnail decoding, scaled to the CPUs actually
// available to the process.
package workers
