// Copyright © Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package events

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/daniel-thom/jade/common"
)

// IEventSink receives structured events. A sink failure must never abort a
// submission, so callers log Emit errors and move on.
type IEventSink interface {
	Emit(event Event) error
	Close() error
}

// FileSink appends events to a newline-delimited JSON file. Each event is
// written with a single Write call so lines stay whole even with several
// writers on the same sink.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, common.DEFAULT_FILE_PERM)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open event log %s", path)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Emit(event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "cannot serialize event")
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(line)
	return errors.Wrap(err, "cannot write event")
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
