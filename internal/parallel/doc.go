// Package parallel runs bounded concurrent operations against a task tracker.
//
// It provides:
//   - Pool: bounded concurrency pool keeping per-job outcomes in submission order
//   - SelfTest: a concurrency check that hammers a scratch task file through
//     a Coordinator and verifies nothing was lost
package parallel
