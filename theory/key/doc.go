// Package key estimates the musical key of a passage from its pitch-class
// energy profile.
//
// Only the 24 major and natural-minor keys are considered. The estimate is
// a plain scale-membership score rather than a correlation against weighted
// key profiles: every in-scale pitch class counts equally.
package key
