package probe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
}

// VideoStream holds the parsed properties of the first video stream.
type VideoStream struct {
	Index        int
	Codec        string
	CodecTag     string
	PixFmt       string
	Width        int
	Height       int
	Frames       int // Counted frames (nb_read_frames), else the header value.
	AvgFrameRate string
}

// ProbeResult is the parsed output of a single ffprobe JSON call.
// PrimaryVideo is nil when the file has no video stream.
type ProbeResult struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
}

// FrameRate returns the average frame rate as a number, or 0 when unknown.
func (v *VideoStream) FrameRate() float64 {
	num, den, ok := strings.Cut(v.AvgFrameRate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (p *ProbeResult) Resolution() string {
	if p.PrimaryVideo == nil || p.PrimaryVideo.Width <= 0 || p.PrimaryVideo.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(p.PrimaryVideo.Width) + "x" + strconv.Itoa(p.PrimaryVideo.Height)
}

// Expect describes what a written video should contain.
type Expect struct {
	Width  int
	Height int
	Frames int
	FPS    int
}

// Mismatches compares the probed video to want and describes every
// difference. An empty result means the video matches.
func (p *ProbeResult) Mismatches(want Expect) []string {
	v := p.PrimaryVideo
	if v == nil {
		return []string{"no video stream"}
	}
	var out []string
	// Odd sizes are padded to even for yuv420p.
	if v.Width != want.Width && v.Width != want.Width+want.Width%2 {
		out = append(out, fmt.Sprintf("width %d, want %d", v.Width, want.Width))
	}
	if v.Height != want.Height && v.Height != want.Height+want.Height%2 {
		out = append(out, fmt.Sprintf("height %d, want %d", v.Height, want.Height))
	}
	if v.Frames != want.Frames {
		out = append(out, fmt.Sprintf("%d frames, want %d", v.Frames, want.Frames))
	}
	if fps := v.FrameRate(); math.Abs(fps-float64(want.FPS)) > 0.01 {
		out = append(out, fmt.Sprintf("%.3f fps, want %d", fps, want.FPS))
	}
	return out
}
