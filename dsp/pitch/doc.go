// Package pitch provides duration-preserving pitch shifters for harmony
// generation.
//
// Included shifters:
//   - WSOLA: Time-domain waveform-similarity overlap-add stretch followed by
//     Hermite resampling back to the input length.
//   - Vocoder: Phase-vocoder stretch with identity phase locking followed
//     by the same resampling stage.
//   - Shifter: Strategy interface shared by both; Select picks one at
//     startup.
package pitch
