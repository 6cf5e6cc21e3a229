// Package assemble renders an operation set into WAT module text and a WIT
// signature listing.
//
// Output is a pure function of the input: the same ops always produce
// byte-identical text, so the compiled module and everything derived from
// it (the fallback subset in particular) are reproducible.
package assemble
