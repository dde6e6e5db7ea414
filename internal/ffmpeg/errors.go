package ffmpeg

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel errors wrapped into the error returned when an ffmpeg process fails.
var (
	ErrEncoderMissing = errors.New("ffmpeg encoder or muxer unavailable")
	ErrOutputDenied   = errors.New("ffmpeg cannot write the output file")
	ErrBrokenPipe     = errors.New("ffmpeg exited before all frames were written")
)

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Classify]; the first match wins.
var (
	reEncoderMissing = regexp.MustCompile(
		`(?i)Unknown encoder|Encoder .* not found|` +
			`Requested output format .* is not a suitable output format|` +
			`Unrecognized option|Could not find tag for codec`)

	reOutputDenied = regexp.MustCompile(
		`(?i)Permission denied|Read-only file system|` +
			`No such file or directory|Is a directory|No space left on device`)

	reBrokenPipe = regexp.MustCompile(
		`(?i)Broken pipe|Error writing trailer|Conversion failed`)
)

// MatchEncoderMissing reports whether stderr names a missing encoder or muxer.
func MatchEncoderMissing(stderr string) bool {
	return reEncoderMissing.MatchString(stderr)
}

// MatchOutputDenied reports whether stderr contains an output write failure.
func MatchOutputDenied(stderr string) bool {
	return reOutputDenied.MatchString(stderr)
}

// MatchBrokenPipe reports whether stderr shows the stream ended abnormally.
func MatchBrokenPipe(stderr string) bool {
	return reBrokenPipe.MatchString(stderr)
}

// Classify maps ffmpeg stderr to one of the package sentinels, or nil when
// nothing recognizable was printed.
func Classify(stderr string) error {
	switch {
	case MatchEncoderMissing(stderr):
		return ErrEncoderMissing
	case MatchOutputDenied(stderr):
		return ErrOutputDenied
	case MatchBrokenPipe(stderr):
		return ErrBrokenPipe
	}
	return nil
}

// ExecError is returned when an ffmpeg process exits unsuccessfully.
type ExecError struct {
	Stderr string
	Err    error // The process or pipe error.
	Kind   error // Result of Classify; may be nil.
}

func (e *ExecError) Error() string {
	msg := "ffmpeg failed: " + e.Err.Error()
	if e.Kind != nil {
		msg += " (" + e.Kind.Error() + ")"
	}
	return msg
}

// Unwrap exposes both the classified sentinel and the underlying error.
func (e *ExecError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// Tail returns the last n non-empty lines of the captured stderr.
func (e *ExecError) Tail(n int) []string {
	return tailLines(e.Stderr, n)
}

func tailLines(s string, n int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
