// Package decimalx provides the arbitrary-precision arithmetic underneath the
// camera trajectory.
//
// Zoom factors span hundreds of orders of magnitude, so every value is an
// apd.Decimal carried at Precision significant digits. The helpers here
// (Log2, Pow2, Pow, Lerp) never round-trip through float64; Float64 exists
// only for log output. Parse and Format are exact inverses so session files
// can persist decimals without losing digits.
package decimalx
