// Package artifact defines the normalized description of one downloadable ROM build.
//
// A Descriptor is built once from a feed entry (or a persisted snapshot) and is
// never mutated afterwards. Two descriptors describe the same build only when
// every field matches; there is no surrogate key.
package artifact
