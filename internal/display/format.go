package display

import (
	"fmt"
	"time"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatClipLength returns the playback length of frames at fps, rounded to
// the millisecond (e.g. "300ms", "1m2.5s"). fps <= 0 yields "unknown".
func FormatClipLength(frames, fps int) string {
	if fps <= 0 {
		return "unknown"
	}
	d := time.Duration(frames) * time.Second / time.Duration(fps)
	return d.Round(time.Millisecond).String()
}
