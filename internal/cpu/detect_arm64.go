//go:build arm64

package cpu

import "golang.org/x/sys/cpu"

// ASIMD is mandatory on ARMv8, so NEON is normally always set.
func detectFeatures() Features {
	return Features{HasNEON: cpu.ARM64.HasASIMD}
}
