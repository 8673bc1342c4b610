// Package filter provides smoothing filters for the noisy per frame values
// produced by the detectors.
package filter
