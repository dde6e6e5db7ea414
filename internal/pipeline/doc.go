// Package pipeline discovers image inputs, converts them into videos, and
// reports a batch summary.
//
// Files:
//   - discover.go: Discover (recursive suffix match, natural order)
//   - convert.go:  Converter.File (multi-page file → video) and
//     Converter.Dir (directory of images → one video)
//   - runner.go:   Run, the batch driver shared by both binaries
//   - stats.go:    RunStats counters
package pipeline
