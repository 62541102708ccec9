package capture

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		keep bool
	}{
		{"hello", "hello", true},
		{"  padded\t", "padded", true},
		{"progress\r", "progress", true},
		{"a\rb", "ab", true},
		{"", "", false},
		{"   ", "", false},
		{"\r", "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			got, keep := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.keep, keep)
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("first\r\n\n  second  \n\r\nthird")
	assert.Equal(t, []string{"first", "second", "third"}, got)
	assert.Nil(t, SplitLines("\n\n"))
}

func TestCapture_SeparatesChannels(t *testing.T) {
	c := New()

	_, _ = io.WriteString(c.Writer(ChannelCLIStdout), "Stack started\r\n\nall good\n")
	_, _ = io.WriteString(c.Writer(ChannelContainerLog), "backend_1 | ready\n")
	_, _ = io.WriteString(c.Writer(ChannelHarnessLog), "level=INFO msg=starting\n")
	c.AddText(ChannelException, "boom\n\n")
	c.Close()

	assert.Equal(t, []string{"Stack started", "all good"}, c.Lines(ChannelCLIStdout))
	assert.Equal(t, []string{"backend_1 | ready"}, c.Lines(ChannelContainerLog))
	assert.Equal(t, []string{"boom"}, c.Lines(ChannelException))

	merged := c.Merged()
	assert.Equal(t, []Line{
		{Channel: ChannelHarnessLog, Text: "level=INFO msg=starting"},
		{Channel: ChannelContainerLog, Text: "backend_1 | ready"},
		{Channel: ChannelCLIStdout, Text: "Stack started"},
		{Channel: ChannelCLIStdout, Text: "all good"},
		{Channel: ChannelException, Text: "boom"},
	}, merged)
}

func TestCapture_PartialLastLine(t *testing.T) {
	c := New()
	w := c.Writer(ChannelCLIStdout)
	_, _ = io.WriteString(w, "no trailing")
	_, _ = io.WriteString(w, " newline")
	c.Close()

	assert.Equal(t, []string{"no trailing newline"}, c.Lines(ChannelCLIStdout))
}

func TestCapture_ConcurrentWritersKeepPerChannelOrder(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for _, ch := range []Channel{ChannelCLIStdout, ChannelContainerLog} {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			w := c.Writer(ch)
			for i := 0; i < 200; i++ {
				fmt.Fprintf(w, "%s %d\n", ch, i)
			}
		}(ch)
	}
	wg.Wait()
	c.Close()

	for _, ch := range []Channel{ChannelCLIStdout, ChannelContainerLog} {
		lines := c.Lines(ch)
		assert.Len(t, lines, 200)
		for i, line := range lines {
			assert.Equal(t, fmt.Sprintf("%s %d", ch, i), line)
		}
	}
}

func TestCapture_NoBlankOrCarriageReturnLines(t *testing.T) {
	c := New()
	_, _ = io.WriteString(c.Writer(ChannelCLIStdout), "\r\n \n\tx\r\r\n\n")
	c.Close()

	for _, line := range c.Merged() {
		assert.NotEmpty(t, line.Text)
		assert.False(t, strings.Contains(line.Text, "\r"))
		assert.Equal(t, strings.TrimSpace(line.Text), line.Text)
	}
}

func TestCapture_CloseIsIdempotent(t *testing.T) {
	c := New()
	_, _ = io.WriteString(c.Writer(ChannelCLIStdout), "once\n")
	c.Close()
	c.Close()

	// Writers requested after close discard their input.
	_, err := io.WriteString(c.Writer(ChannelException), "late\n")
	assert.NoError(t, err)
	assert.Empty(t, c.Lines(ChannelException))
	assert.Equal(t, []string{"once"}, c.Lines(ChannelCLIStdout))
}

func TestCapture_OverlongLineIsSplit(t *testing.T) {
	c := New()

	long := strings.Repeat("x", maxLineSize+10)
	_, _ = io.WriteString(c.Writer(ChannelCLIStdout), "before\n"+long+"\nafter marker\n")
	c.Close()

	lines := c.Lines(ChannelCLIStdout)
	if assert.Len(t, lines, 4) {
		assert.Equal(t, "before", lines[0])
		assert.Len(t, lines[1], maxLineSize)
		assert.Equal(t, strings.Repeat("x", 10), lines[2])
		assert.Equal(t, "after marker", lines[3])
	}
}
