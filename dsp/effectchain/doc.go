// Package effectchain provides the fixed effects chain applied to the
// summed harmony voices before they are mixed under the lead vocal.
package effectchain
