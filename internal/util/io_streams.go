/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package util

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// IOStreams provides the standard names for iostreams. This is useful for
// embedding and for unit testing.
type IOStreams struct {
	// In think, os.Stdin
	In io.Reader
	// Out think, os.Stdout
	Out io.Writer
	// ErrOut think, os.Stderr
	ErrOut io.Writer
}

// NewIOStreams returns a valid IOStreams with the default stdin/out/err streams.
func NewIOStreams() IOStreams {
	return IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

// NewTestIOStreams returns a valid IOStreams and in, out, errout buffers for unit tests.
func NewTestIOStreams() (IOStreams, *SafeBytesBuffer, *SafeBytesBuffer, *SafeBytesBuffer) {
	in := &SafeBytesBuffer{}
	out := &SafeBytesBuffer{}
	errOut := &SafeBytesBuffer{}

	return IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}

// SafeBytesBuffer is a bytes.Buffer that is safe for use in multiple
// goroutines.
type SafeBytesBuffer struct {
	buffer bytes.Buffer
	mutex  sync.Mutex
}

// Read reads the next len(p) bytes from the buffer or until the buffer
// is drained.
func (s *SafeBytesBuffer) Read(p []byte) (n int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.buffer.Read(p)
}

// Write appends the contents of p to the buffer, growing the buffer as
// needed.
func (s *SafeBytesBuffer) Write(p []byte) (n int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.buffer.Write(p)
}

// String returns the contents of the unread portion of the buffer
// as a string.
func (s *SafeBytesBuffer) String() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.buffer.String()
}
