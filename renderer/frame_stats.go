package renderer

import (
	"fmt"
	"time"

	"github.com/loov/hrtime"
)

// frameStats accumulates frame times and the time spent blocked on fences between title updates.
type frameStats struct {
	interval time.Duration

	windowStart time.Duration
	frameStart  time.Duration
	frames      int
	skipped     int
	waited      time.Duration
	worst       time.Duration

	totalFrames int
	start       time.Duration
}

// statsSnapshot is one reporting window.
type statsSnapshot struct {
	Frames  int
	Skipped int
	Elapsed time.Duration
	Waited  time.Duration
	Worst   time.Duration
}

func (s statsSnapshot) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// WaitShare is the fraction of the window the CPU spent waiting for the GPU.
func (s statsSnapshot) WaitShare() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Waited) / float64(s.Elapsed)
}

func (s statsSnapshot) String() string {
	return fmt.Sprintf("%.0f fps | worst %.2f ms | gpu wait %.0f%% | skipped %d",
		s.FPS(),
		float64(s.Worst)/float64(time.Millisecond),
		s.WaitShare()*100,
		s.Skipped,
	)
}

func newFrameStats(interval time.Duration, now time.Duration) *frameStats {
	return &frameStats{interval: interval, windowStart: now, frameStart: now, start: now}
}

// beginFrame marks the start of a frame at now.
func (fs *frameStats) beginFrame(now time.Duration) {
	fs.frameStart = now
}

// endFrame records a presented frame and reports a snapshot whenever a full interval has passed.
func (fs *frameStats) endFrame(now time.Duration) (statsSnapshot, bool) {
	if d := now - fs.frameStart; d > fs.worst {
		fs.worst = d
	}
	fs.frames++
	fs.totalFrames++
	return fs.flush(now)
}

// skipFrame records a frame without a chain to draw into.
func (fs *frameStats) skipFrame(now time.Duration) (statsSnapshot, bool) {
	fs.skipped++
	return fs.flush(now)
}

// addWait accounts time blocked on a fence.
func (fs *frameStats) addWait(d time.Duration) {
	fs.waited += d
}

func (fs *frameStats) flush(now time.Duration) (statsSnapshot, bool) {
	elapsed := now - fs.windowStart
	if fs.interval <= 0 || elapsed < fs.interval {
		return statsSnapshot{}, false
	}
	snap := statsSnapshot{
		Frames:  fs.frames,
		Skipped: fs.skipped,
		Elapsed: elapsed,
		Waited:  fs.waited,
		Worst:   fs.worst,
	}
	fs.windowStart = now
	fs.frames, fs.skipped = 0, 0
	fs.waited, fs.worst = 0, 0
	return snap, true
}

// average returns frames per second since creation.
func (fs *frameStats) average(now time.Duration) float64 {
	elapsed := now - fs.start
	if elapsed <= 0 {
		return 0
	}
	return float64(fs.totalFrames) / elapsed.Seconds()
}

// stopwatch is a small helper around hrtime for measuring blocking calls.
type stopwatch time.Duration

func startStopwatch() stopwatch {
	return stopwatch(hrtime.Now())
}

func (s stopwatch) elapsed() time.Duration {
	return hrtime.Since(time.Duration(s))
}
