// Package ffmpeg builds and runs the ffmpeg command that encodes a stream of
// raw frames into MPEG-4 Part 2 video.
//
// Frames are piped to ffmpeg's stdin as rawvideo (rgb24 or gray) with a
// fixed size and frame rate; the encoder writes an MP4 container with the
// mp4v tag. Stderr is captured and classified into sentinel errors when the
// process fails.
//
// Files:
//   - builder.go: Build(Config, RawInput, output) → []string
//   - executor.go: Start a piped process, Execute a one-shot command
//   - errors.go: sentinel errors and stderr classification
package ffmpeg
