// Package lockout implements the per-principal failed-attempt state
// machine: Unlocked below the threshold, Locked for a fixed window once
// the threshold is reached, with the unlock transition applied lazily on
// access rather than by a timer. Memory backs single-process use; Redis
// backs multi-process deployments.
package lockout
