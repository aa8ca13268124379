// Package mix combines vocals, harmony voices and accompaniment into one
// buffer.
//
// All inputs are truncated to the shortest length. Harmonies are summed onto
// a bus that optionally runs through the harmony effects chain, then each
// part is gained and added. The result is scaled down to a 0.95 peak only
// when it would clip.
package mix
