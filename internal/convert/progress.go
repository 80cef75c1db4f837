package convert

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleProgress renders a progress bar on a terminal. It rate-limits
// redraws and is safe for concurrent use.
type ConsoleProgress struct {
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration

	mu         sync.Mutex
	lastUpdate time.Time
	startTime  time.Time
	lastPct    int
}

// NewConsoleProgress creates a console progress reporter. A nil writer
// defaults to stderr.
func NewConsoleProgress(writer io.Writer, prefix string) *ConsoleProgress {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgress{
		writer:         writer,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
		startTime:      time.Now(),
		lastPct:        -1,
	}
}

// Update implements ProgressFunc.
func (c *ConsoleProgress) Update(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && percent < 100 {
		return
	}
	if percent == c.lastPct {
		return
	}
	c.lastUpdate = now
	c.lastPct = percent

	filled := c.width * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	_, _ = fmt.Fprintf(c.writer, "\r%s[%s] %d%%", c.prefix, bar, percent)
}

// Finish draws the final bar and the elapsed time.
func (c *ConsoleProgress) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.startTime)
	bar := strings.Repeat("█", c.width)
	_, _ = fmt.Fprintf(c.writer, "\r%s[%s] 100%%\n%sCompleted in %v\n",
		c.prefix, bar, c.prefix, elapsed.Round(time.Millisecond))
}

// LogProgress logs progress updates through slog, at most once per
// step of the given percentage interval.
type LogProgress struct {
	logger   *slog.Logger
	interval int

	mu      sync.Mutex
	lastLog int
}

// NewLogProgress creates a log-based progress reporter. Interval is the
// minimum percentage step between log lines.
func NewLogProgress(logger *slog.Logger, interval int) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10
	}
	return &LogProgress{logger: logger, interval: interval, lastLog: -1}
}

// Update implements ProgressFunc.
func (l *LogProgress) Update(percent int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastLog >= 0 && percent-l.lastLog < l.interval {
		return
	}
	l.lastLog = percent
	l.logger.Info("conversion progress", "percent", percent)
}
