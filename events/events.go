// Copyright © 2017 Microsoft <wastore@microsoft.com>
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

// Package events records structured submission events as newline-delimited
// JSON so that cluster activity can be inspected long after a run finishes.
package events

import (
	"fmt"
	"runtime"
	"time"

	"github.com/daniel-thom/jade/common"
)

// Event categories.
const (
	CategoryError        = "Error"
	CategoryHPC          = "HPC"
	CategoryResourceUtil = "ResourceUtilization"
)

// Event names.
const (
	EventNameHpcSubmit         = "hpc_submit"
	EventNameHpcJobAssigned    = "hpc_job_assigned"
	EventNameHpcJobStateChange = "hpc_job_state_change"
	EventNameCpuStats          = "cpu_stats"
	EventNameDiskStats         = "disk_stats"
	EventNameMemStats          = "mem_stats"
	EventNameNetStats          = "net_stats"
	EventNameUnhandledError    = "error"
)

// Event is a single structured record in the event stream. One event is one
// line in an events log, serialized as JSON.
type Event struct {
	Category  string                 `json:"category"`
	Data      map[string]interface{} `json:"data"`
	Message   string                 `json:"message"`
	Name      string                 `json:"name"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent stamps an event with the current time. A nil data map is recorded
// as an empty one so consumers never have to nil-check.
func NewEvent(source, category, name, message string, data map[string]interface{}) Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Event{
		Category:  category,
		Data:      data,
		Message:   message,
		Name:      name,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnhandledErrorEvent captures an error together with the location of the
// caller that caught it. The exception field holds the type of the root
// cause, not of whatever wrapper it arrived in.
func NewUnhandledErrorEvent(source string, err error) Event {
	data := map[string]interface{}{
		"error":     err.Error(),
		"exception": fmt.Sprintf("%T", common.Cause(err)),
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		data["filename"] = file
		data["lineno"] = line
	}
	return NewEvent(source, CategoryError, EventNameUnhandledError, err.Error(), data)
}
