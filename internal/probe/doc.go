// Package probe inspects written videos with ffprobe. A single JSON call
// decodes the first video stream, counting frames, so a conversion can be
// checked against what was requested (frame count, size, frame rate).
package probe
