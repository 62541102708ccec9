package capture

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Channel identifies where a captured line came from.
type Channel string

const (
	// ChannelHarnessLog carries the harness's own log records.
	ChannelHarnessLog Channel = "harness-log"
	// ChannelContainerLog carries the driven CLI's stderr, where container
	// and orchestration output ends up.
	ChannelContainerLog Channel = "container-log"
	// ChannelCLIStdout carries the driven CLI's stdout.
	ChannelCLIStdout Channel = "cli-stdout"
	// ChannelException carries the text of an error raised by the invocation.
	ChannelException Channel = "exception-text"
)

// Channels lists every channel in presentation order.
var Channels = []Channel{
	ChannelHarnessLog,
	ChannelContainerLog,
	ChannelCLIStdout,
	ChannelException,
}

// Line is a single normalised line of captured output.
type Line struct {
	Channel Channel `json:"channel"`
	Text    string  `json:"text"`
}

// maxLineSize bounds a single captured line; longer lines are split.
const maxLineSize = 1024 * 1024

// Capture collects output for one invocation into independent channels.
//
// Writers returned by Writer may be handed to a subprocess or a logger. Each
// one is drained by its own goroutine, so producers are never slowed down by
// classification. Close must be called once production has finished; after
// that the captured lines are frozen.
type Capture struct {
	mu      sync.Mutex
	lines   map[Channel][]string
	writers map[Channel]*io.PipeWriter
	group   errgroup.Group
	closed  bool
}

// New creates an empty capture.
func New() *Capture {
	return &Capture{
		lines:   make(map[Channel][]string),
		writers: make(map[Channel]*io.PipeWriter),
	}
}

// Writer returns the writer feeding channel ch, creating it on first use.
func (c *Capture) Writer(ch Channel) io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.writers[ch]; ok {
		return w
	}
	if c.closed {
		return io.Discard
	}

	reader, writer := io.Pipe()
	c.writers[ch] = writer
	c.group.Go(func() error {
		c.drain(ch, reader)
		return nil
	})
	return writer
}

// drain reads reader until EOF, appending normalised lines to ch. Lines
// longer than maxLineSize are split into maxLineSize chunks.
func (c *Capture) drain(ch Channel, reader *io.PipeReader) {
	br := bufio.NewReaderSize(reader, 64*1024)
	var pending []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if len(pending) > 0 {
				c.add(ch, string(pending))
			}
			// Keep the producer from blocking if reading stopped early.
			_, _ = io.Copy(io.Discard, reader)
			return
		}
		pending = append(pending, chunk...)
		for len(pending) >= maxLineSize {
			c.add(ch, string(pending[:maxLineSize]))
			pending = append(pending[:0], pending[maxLineSize:]...)
		}
		if !isPrefix {
			c.add(ch, string(pending))
			pending = pending[:0]
		}
	}
}

// AddText splits text into lines and appends them to ch directly. It is used
// for text that is only known after the fact, such as an error message.
func (c *Capture) AddText(ch Channel, text string) {
	for _, line := range SplitLines(text) {
		c.appendLine(ch, line)
	}
}

func (c *Capture) add(ch Channel, raw string) {
	if line, ok := Normalize(raw); ok {
		c.appendLine(ch, line)
	}
}

func (c *Capture) appendLine(ch Channel, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[ch] = append(c.lines[ch], line)
}

// Close flushes every channel and waits for the readers to finish.
func (c *Capture) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	writers := make([]*io.PipeWriter, 0, len(c.writers))
	for _, w := range c.writers {
		writers = append(writers, w)
	}
	c.mu.Unlock()

	for _, w := range writers {
		w.Close()
	}
	_ = c.group.Wait()
}

// Lines returns a copy of the lines captured on ch, in production order.
func (c *Capture) Lines(ch Channel) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines[ch]...)
}

// Merged returns all lines tagged with their channel, concatenated in the
// fixed order of Channels. Order inside a channel is preserved; no claim is
// made about real-time ordering across channels.
func (c *Capture) Merged() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	var merged []Line
	for _, ch := range Channels {
		for _, text := range c.lines[ch] {
			merged = append(merged, Line{Channel: ch, Text: text})
		}
	}
	return merged
}

// Normalize strips carriage returns and surrounding whitespace. It reports
// false for lines that are empty afterwards.
func Normalize(raw string) (string, bool) {
	line := strings.TrimSpace(strings.ReplaceAll(raw, "\r", ""))
	return line, line != ""
}

// SplitLines normalises every line of text and drops the empty ones.
func SplitLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line, ok := Normalize(raw); ok {
			lines = append(lines, line)
		}
	}
	return lines
}
