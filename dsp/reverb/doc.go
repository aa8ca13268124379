// Package reverb provides an algorithmic room reverb for the harmony bus.
//
// Included processors:
//   - Freeverb: Jezar's comb/allpass network with host-style parameter
//     mapping and sample-rate-scaled delay lengths.
package reverb
