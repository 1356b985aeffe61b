// Package trajectory computes the camera path of a zoom video.
//
// ComputeFrame is a pure function from normalized progress and Params to a
// Point (zoom, position, iteration count). Progress is eased with a power
// curve, zoom is interpolated in log2 space, and position is weighted by the
// reciprocal of the zoom ratio so panning keeps pace with magnification.
// All arithmetic runs through decimalx, which makes a resumed render produce
// the same digits as an uninterrupted one.
package trajectory
