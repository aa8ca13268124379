// Package dynamics provides the level processors used on the harmony bus.
//
// Build with -tags fastmath to swap the per-sample log/exp in the gain
// computer for algo-approx approximations.
package dynamics
