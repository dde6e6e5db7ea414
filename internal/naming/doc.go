// Package naming decides where videos are written: output path resolution
// for a requested destination, batch output directory preparation, and
// in-run collision resolution.
package naming
