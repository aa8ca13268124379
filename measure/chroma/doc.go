// Package chroma folds the short-time spectrum of a signal into the twelve
// pitch classes of equal temperament.
//
// Each STFT frame contributes its power spectrum between a low and a high
// frequency bound; every bin is assigned to the pitch class of its nearest
// MIDI note. Frames are normalized to a maximum of one before averaging, so
// loud passages do not dominate the profile.
//
// # Usage
//
//	ex, err := chroma.New(44100)
//	profile := ex.Compute(mono) // key.Chroma
//	info, err := key.Estimate(profile)
package chroma
