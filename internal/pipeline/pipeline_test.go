package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/imageio"
	"github.com/backmassage/tiff2video/internal/imageio/imageiotest"
	"github.com/backmassage/tiff2video/internal/logging"
	"github.com/backmassage/tiff2video/internal/video"
)

// --- Recording encoder ---

type fakeVideo struct {
	opts   video.Options
	frames []imageio.Shape
	closed int
}

func (v *fakeVideo) WriteFrame(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != v.opts.Shape.Width || b.Dy() != v.opts.Shape.Height {
		return fmt.Errorf("%w: %dx%d", video.ErrFrameSize, b.Dx(), b.Dy())
	}
	v.frames = append(v.frames, imageio.ShapeOf(img))
	return nil
}

func (v *fakeVideo) Close() error {
	v.closed++
	return nil
}

func (v *fakeVideo) Frames() int { return len(v.frames) }

type fakeOpener struct {
	videos  []*fakeVideo
	openErr error
}

func (o *fakeOpener) Open(_ context.Context, opts video.Options) (video.Writer, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	v := &fakeVideo{opts: opts}
	o.videos = append(o.videos, v)
	return v, nil
}

func (o *fakeOpener) byPath(path string) *fakeVideo {
	for _, v := range o.videos {
		if v.opts.Path == path {
			return v
		}
	}
	return nil
}

// --- Helpers ---

type harness struct {
	fs   afero.Fs
	cfg  *config.Config
	open *fakeOpener
	logs *bytes.Buffer
	conv *Converter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	h := &harness{
		fs:   afero.NewMemMapFs(),
		cfg:  &cfg,
		open: &fakeOpener{},
		logs: &bytes.Buffer{},
	}
	h.conv = &Converter{
		Fs:   h.fs,
		Log:  logging.New(h.logs, config.VerbosityError),
		Cfg:  h.cfg,
		Open: h.open,
	}
	return h
}

func (h *harness) tiff(t *testing.T, path string, pages ...image.Image) {
	t.Helper()
	if err := imageiotest.WriteTIFF(h.fs, path, pages...); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) touch(t *testing.T, path, content string) {
	t.Helper()
	if err := h.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(h.fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Discover tests ---

func TestDiscover_FiltersExtensions(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"a.tif", "b.TIFF", "c.png", "d.jpg", "e.txt", "f.mp4", "g.hdr", "h.webp"} {
		h.touch(t, "/in/"+name, "x")
	}

	files, err := Discover(h.fs, "/in")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"a.tif", "b.TIFF", "c.png", "d.jpg", "g.hdr", "h.webp"}
	if got := basenames(files); !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_TIFGlob(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"one.tif", "two.tiff", "three.TIF", "four.png", "tif.txt"} {
		h.touch(t, "/in/"+name, "x")
	}

	files, err := Discover(h.fs, "/in", ".tif*")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one.tif", "three.TIF", "two.tiff"}
	if got := basenames(files); !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_RecursiveNaturalOrder(t *testing.T) {
	h := newHarness(t)
	for _, p := range []string{
		"/in/frame10.tif", "/in/frame2.tif", "/in/frame1.tif",
		"/in/sub/frame3.tif", "/in/sub2/x.tif",
	} {
		h.touch(t, p, "x")
	}

	files, err := Discover(h.fs, "/in", ".tif")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"/in/frame1.tif", "/in/frame2.tif", "/in/frame10.tif",
		"/in/sub/frame3.tif", "/in/sub2/x.tif",
	}
	if !sliceEqual(files, want) {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestDiscover_NoMatches(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "/in/readme.txt", "x")
	h.touch(t, "/in/data.csv", "x")

	files, err := Discover(h.fs, "/in")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("got %v, want none", files)
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	files, err := Discover(afero.NewMemMapFs(), "/does/not/exist", ".tif*")
	if err != nil || files != nil {
		t.Errorf("Discover(missing) = %v, %v; want nil, nil", files, err)
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"frame2", "frame10", true},
		{"frame10", "frame2", false},
		{"a", "b", true},
		{"img007", "img7", false},
		{"img7", "img007", true},
		{"x1y2", "x1y10", true},
		{"abc", "abcd", true},
		{"same", "same", false},
		{"99999999999999999999a", "100000000000000000000a", true},
		{"a01a", "a1b", true},
		{"a1b", "a01a", false},
		{"a1x01", "a01x1", true},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// --- Converter.File tests ---

func TestFile_MultiPage(t *testing.T) {
	h := newHarness(t)
	h.cfg.FPS = 12
	h.tiff(t, "/in/stack.tif", imageiotest.Pages(5, 20, 10)...)

	res := h.conv.File(context.Background(), "/in/stack.tif", "")
	if res.Outcome != OutcomeWritten {
		t.Fatalf("Outcome = %v (%v), want written", res.Outcome, res.Err)
	}
	if res.Path != "/in/stack.mp4" {
		t.Errorf("Path = %q, want /in/stack.mp4", res.Path)
	}
	if res.Frames != 5 {
		t.Errorf("Frames = %d, want 5", res.Frames)
	}

	v := h.open.byPath("/in/stack.mp4")
	if v == nil {
		t.Fatal("no video opened")
	}
	if v.opts.FPS != 12 {
		t.Errorf("FPS = %d, want 12", v.opts.FPS)
	}
	if v.opts.Shape != (imageio.Shape{Width: 20, Height: 10, Color: true}) {
		t.Errorf("Shape = %v", v.opts.Shape)
	}
	if v.closed != 1 {
		t.Errorf("writer closed %d times, want 1", v.closed)
	}
}

func TestFile_TooFewPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []image.Image
	}{
		{"single page", imageiotest.Pages(1, 8, 8)},
		{"zero pages", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.tiff(t, "/in/one.tif", tt.pages...)

			res := h.conv.File(context.Background(), "/in/one.tif", "/out")
			if res.Outcome != OutcomeTooFewPages {
				t.Errorf("Outcome = %v, want too few pages", res.Outcome)
			}
			if len(h.open.videos) != 0 {
				t.Error("a video was opened for a single-page source")
			}
			if !strings.Contains(h.logs.String(), "is a single image") {
				t.Errorf("missing info message: %s", h.logs.String())
			}
		})
	}
}

func TestFile_Invalid(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "/in/dir/file.tif", "x")

	for _, src := range []string{"", "/in/dir", "/missing.tif"} {
		if res := h.conv.File(context.Background(), src, ""); res.Outcome != OutcomeInvalid {
			t.Errorf("File(%q) = %v, want invalid source", src, res.Outcome)
		}
	}
}

func TestFile_CorruptIsFailure(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "/in/bad.tif", "not a tiff at all")

	res := h.conv.File(context.Background(), "/in/bad.tif", "/out")
	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %v, want failed", res.Outcome)
	}
	if !errors.Is(res.Err, imageio.ErrDecode) {
		t.Errorf("Err = %v, want ErrDecode", res.Err)
	}
	if fi, err := h.fs.Stat("/out"); err != nil || !fi.IsDir() {
		t.Error("output directory should be created before decoding")
	}
}

func TestFile_PageSizeMismatchSkipped(t *testing.T) {
	h := newHarness(t)
	pages := imageiotest.Pages(4, 10, 6)
	pages[2] = imageiotest.Solid(8, 6, image.White.C)
	h.tiff(t, "/in/mixed.tif", pages...)

	res := h.conv.File(context.Background(), "/in/mixed.tif", "/out/clip.mp4")
	if res.Outcome != OutcomeWritten {
		t.Fatalf("Outcome = %v (%v)", res.Outcome, res.Err)
	}
	if res.Frames != 3 || res.Skipped != 1 {
		t.Errorf("Frames/Skipped = %d/%d, want 3/1", res.Frames, res.Skipped)
	}
	if res.Path != "/out/clip.mp4" {
		t.Errorf("Path = %q", res.Path)
	}
}

func TestFile_OpenFailure(t *testing.T) {
	h := newHarness(t)
	h.open.openErr = errors.New("encoder unavailable")
	h.tiff(t, "/in/s.tif", imageiotest.Pages(2, 4, 4)...)

	res := h.conv.File(context.Background(), "/in/s.tif", "")
	if res.Outcome != OutcomeFailed || res.Err == nil {
		t.Errorf("Outcome = %v, Err = %v; want failed with error", res.Outcome, res.Err)
	}
}

// --- Converter.Dir tests ---

func TestDir_SequenceScenario(t *testing.T) {
	h := newHarness(t)
	h.cfg.FPS = 10
	for _, name := range []string{"a", "b", "c"} {
		h.tiff(t, "/seq/"+name+".tif", imageiotest.Solid(100, 50, image.Black.C))
	}

	res := h.conv.Dir(context.Background(), "/seq", "/out/")
	if res.Outcome != OutcomeWritten {
		t.Fatalf("Outcome = %v (%v)", res.Outcome, res.Err)
	}
	if res.Path != "/out/a.mp4" {
		t.Errorf("Path = %q, want /out/a.mp4", res.Path)
	}
	if fi, err := h.fs.Stat("/out"); err != nil || !fi.IsDir() {
		t.Error("/out was not created")
	}
	v := h.open.byPath("/out/a.mp4")
	if v == nil {
		t.Fatal("no video at /out/a.mp4")
	}
	if len(v.frames) != 3 || v.opts.FPS != 10 {
		t.Errorf("frames=%d fps=%d, want 3 @ 10", len(v.frames), v.opts.FPS)
	}
	if v.opts.Shape.Width != 100 || v.opts.Shape.Height != 50 {
		t.Errorf("shape = %v, want 100x50", v.opts.Shape)
	}
}

func TestDir_MismatchAndCorruptSkipped(t *testing.T) {
	h := newHarness(t)
	h.tiff(t, "/seq/f1.tif", imageiotest.Solid(30, 20, image.Black.C))
	h.tiff(t, "/seq/f2.tif", imageiotest.Solid(30, 20, image.White.C))
	h.tiff(t, "/seq/f3.tif", imageiotest.Solid(31, 20, image.White.C))
	h.tiff(t, "/seq/f4.tif", imageiotest.SolidGray(30, 20, 9))
	h.touch(t, "/seq/f5.tif", "garbage")
	h.tiff(t, "/seq/f10.tif", imageiotest.Solid(30, 20, image.Black.C))

	res := h.conv.Dir(context.Background(), "/seq", "")
	if res.Outcome != OutcomeWritten {
		t.Fatalf("Outcome = %v (%v)", res.Outcome, res.Err)
	}
	if res.Path != "/seq/f1.mp4" {
		t.Errorf("Path = %q, want /seq/f1.mp4", res.Path)
	}
	// f3 (size), f4 (gray) and f5 (corrupt) are skipped.
	if res.Frames != 3 || res.Skipped != 3 {
		t.Errorf("Frames/Skipped = %d/%d, want 3/3", res.Frames, res.Skipped)
	}
	if h.open.videos[0].closed != 1 {
		t.Errorf("writer closed %d times, want 1", h.open.videos[0].closed)
	}
}

func TestDir_NoInput(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "/seq/notes.txt", "x")

	res := h.conv.Dir(context.Background(), "/seq", "")
	if res.Outcome != OutcomeNoInput {
		t.Errorf("Outcome = %v, want no input", res.Outcome)
	}
	if !strings.Contains(h.logs.String(), "Directory input is empty") {
		t.Errorf("missing error log: %s", h.logs.String())
	}
}

func TestDir_NoFrames(t *testing.T) {
	h := newHarness(t)
	h.touch(t, "/seq/a.tif", "bad")
	h.touch(t, "/seq/b.tif", "bad")

	res := h.conv.Dir(context.Background(), "/seq", "/out")
	if res.Outcome != OutcomeNoFrames {
		t.Errorf("Outcome = %v, want no frames", res.Outcome)
	}
	if len(h.open.videos) != 0 {
		t.Error("writer must not be opened when nothing decodes")
	}
}

// --- Run tests ---

func TestRun_BatchIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in"
	h.cfg.OutputPath = "/out"
	h.tiff(t, "/in/good1.tif", imageiotest.Pages(3, 16, 8)...)
	h.touch(t, "/in/bad.tif", "corrupt")
	h.tiff(t, "/in/good2.tiff", imageiotest.Pages(2, 16, 8)...)

	stats := Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	if stats.Total != 3 || stats.Converted != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 3 total, 2 converted, 1 failed", stats)
	}
	if stats.FramesWritten != 5 {
		t.Errorf("FramesWritten = %d, want 5", stats.FramesWritten)
	}
	for _, p := range []string{"/out/good1.mp4", "/out/good2.mp4"} {
		if h.open.byPath(p) == nil {
			t.Errorf("no video written at %s", p)
		}
	}
	if !strings.Contains(h.logs.String(), "Something went wrong with /in/bad.tif") {
		t.Errorf("failure was not logged:\n%s", h.logs.String())
	}
}

func TestRun_BatchCollision(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in"
	h.cfg.OutputPath = "/out"
	h.tiff(t, "/in/a/scan.tif", imageiotest.Pages(2, 4, 4)...)
	h.tiff(t, "/in/b/scan.tif", imageiotest.Pages(2, 4, 4)...)

	Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	for _, p := range []string{"/out/scan.mp4", "/out/scan - dup1.mp4"} {
		if h.open.byPath(p) == nil {
			t.Errorf("no video written at %s", p)
		}
	}
}

func TestRun_BatchOutputIsFile(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in"
	h.cfg.OutputPath = "/videos/list.txt"
	h.touch(t, "/videos/list.txt", "x")
	h.tiff(t, "/in/s.tif", imageiotest.Pages(2, 4, 4)...)

	Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	if h.open.byPath("/videos/s.mp4") == nil {
		t.Error("video should be written next to the output file")
	}
}

func TestRun_SkipExisting(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in"
	h.cfg.OutputPath = "/out"
	h.cfg.SkipExisting = true
	h.tiff(t, "/in/old.tif", imageiotest.Pages(2, 4, 4)...)
	h.tiff(t, "/in/new.tif", imageiotest.Pages(2, 4, 4)...)
	h.touch(t, "/out/old.mp4", "already here")

	stats := Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	if stats.Skipped != 1 || stats.Converted != 1 {
		t.Errorf("stats = %+v, want 1 skipped, 1 converted", stats)
	}
	if h.open.byPath("/out/old.mp4") != nil {
		t.Error("existing output was overwritten")
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in"
	h.cfg.OutputPath = "/in/videos"
	h.cfg.DryRun = true
	h.tiff(t, "/in/s1.tif", imageiotest.Pages(2, 4, 4)...)
	h.tiff(t, "/in/s2.tif", imageiotest.Pages(3, 4, 4)...)

	base := h.fs
	h.conv.Fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), afero.NewMemMapFs())

	stats := Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	if stats.Converted != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 2 planned", stats)
	}
	if len(h.open.videos) != 0 {
		t.Error("dry run opened a video")
	}
	if _, err := base.Stat("/in/videos"); err == nil {
		t.Error("dry run created the output directory on the real filesystem")
	}
	if !strings.Contains(h.logs.String(), "[DRY] Would write /in/videos/s1.mp4") {
		t.Errorf("missing dry-run line:\n%s", h.logs.String())
	}
}

func TestRun_SingleFileSource(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in/stack.tif"
	h.cfg.OutputPath = "/in"
	h.tiff(t, "/in/stack.tif", imageiotest.Pages(3, 6, 6)...)

	stats := Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	if stats.Converted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if h.open.byPath("/in/stack.mp4") == nil {
		t.Error("expected /in/stack.mp4")
	}
}

func TestRun_Aggregate(t *testing.T) {
	h := newHarness(t)
	h.cfg.Mode = config.ModeAggregate
	h.cfg.InputPath = "/seq"
	h.cfg.OutputPath = "/seq"
	for i := 1; i <= 4; i++ {
		h.tiff(t, fmt.Sprintf("/seq/img%d.tif", i), imageiotest.Solid(8, 8, image.Black.C))
	}

	stats := Run(context.Background(), h.cfg, h.conv.Log, h.conv)

	if stats.Converted != 1 || stats.FramesWritten != 4 {
		t.Errorf("stats = %+v, want 1 video with 4 frames", stats)
	}
	if h.open.byPath("/seq/img1.mp4") == nil {
		t.Error("expected /seq/img1.mp4")
	}
}

func TestRun_AggregateRequiresDirectory(t *testing.T) {
	h := newHarness(t)
	h.cfg.Mode = config.ModeAggregate
	h.cfg.InputPath = "/seq/a.tif"
	h.tiff(t, "/seq/a.tif", imageiotest.Pages(2, 4, 4)...)

	stats := Run(context.Background(), h.cfg, h.conv.Log, h.conv)
	if stats.Failed != 1 || len(h.open.videos) != 0 {
		t.Errorf("stats = %+v, videos = %d", stats, len(h.open.videos))
	}
}

func TestRun_Interrupted(t *testing.T) {
	h := newHarness(t)
	h.cfg.InputPath = "/in"
	h.cfg.OutputPath = "/out"
	h.tiff(t, "/in/s.tif", imageiotest.Pages(2, 4, 4)...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := Run(ctx, h.cfg, h.conv.Log, h.conv)

	if stats.Converted != 0 || len(h.open.videos) != 0 {
		t.Errorf("cancelled run converted files: %+v", stats)
	}
	if stats.Current != 0 || stats.Total != 1 {
		t.Errorf("Current/Total = %d/%d, want 0/1 (file never started)", stats.Current, stats.Total)
	}
	if !strings.Contains(h.logs.String(), "Interrupted") {
		t.Error("missing interrupt warning")
	}
}

// --- RunStats / Outcome ---

func TestRunStats_Record(t *testing.T) {
	var s RunStats
	s.Record(Result{Outcome: OutcomeWritten, Frames: 10, Skipped: 1})
	s.Record(Result{Outcome: OutcomePlanned})
	s.Record(Result{Outcome: OutcomeTooFewPages})
	s.Record(Result{Outcome: OutcomeSkipped})
	s.Record(Result{Outcome: OutcomeFailed})
	s.Record(Result{Outcome: OutcomeNoInput})

	if s.Converted != 2 || s.Skipped != 2 || s.Failed != 2 {
		t.Errorf("stats = %+v", s)
	}
	if s.FramesWritten != 10 || s.FramesSkipped != 1 {
		t.Errorf("frames = %d/%d", s.FramesWritten, s.FramesSkipped)
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeTooFewPages.String() != "too few pages" {
		t.Errorf("got %q", OutcomeTooFewPages.String())
	}
	if Outcome(99).String() != "Outcome(99)" {
		t.Errorf("got %q", Outcome(99).String())
	}
}
