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

package common

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/JeffreyRichter/enum/enum"
)

var EStatus = Status(0)

// Status is the overall result of a command. Its integer value is used as the process exit code.
type Status uint32

func (Status) Good() Status       { return Status(0) }
func (Status) Error() Status      { return Status(1) }
func (Status) InProgress() Status { return Status(2) }

func (s *Status) Parse(str string) error {
	val, err := enum.ParseInt(reflect.TypeOf(s), str, true, true)
	if err == nil {
		*s = val.(Status)
	}
	return err
}

func (s Status) String() string {
	return enum.StringInt(s, reflect.TypeOf(s))
}

// ExitCode returns the code the process should exit with for this status.
func (s Status) ExitCode() ExitCode {
	return ExitCode(s)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var EHpcJobStatus = HpcJobStatus(0)

// HpcJobStatus is the cluster's view of one submitted allocation.
// None means the job is not present in the cluster queue; after a successful
// submission that can only mean the job finished and aged out of the queue.
type HpcJobStatus uint32

func (HpcJobStatus) None() HpcJobStatus     { return HpcJobStatus(0) }
func (HpcJobStatus) Queued() HpcJobStatus   { return HpcJobStatus(1) }
func (HpcJobStatus) Running() HpcJobStatus  { return HpcJobStatus(2) }
func (HpcJobStatus) Complete() HpcJobStatus { return HpcJobStatus(3) }

func (h *HpcJobStatus) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(h), s, true)
	if err == nil {
		*h = val.(HpcJobStatus)
	}
	return err
}

func (h HpcJobStatus) String() string {
	return enum.StringInt(h, reflect.TypeOf(h))
}

func (h HpcJobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HpcJobStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return h.Parse(s)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var EHpcType = HpcType(0)

type HpcType uint32

func (HpcType) Slurm() HpcType { return HpcType(0) }
func (HpcType) Local() HpcType { return HpcType(1) }
func (HpcType) Fake() HpcType  { return HpcType(2) }

func (t *HpcType) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(t), s, true)
	if err == nil {
		*t = val.(HpcType)
	}
	return err
}

func (t HpcType) String() string {
	return enum.StringInt(t, reflect.TypeOf(t))
}

// TOML profiles spell the type in lower case, e.g. hpc_type = "slurm".
func (t HpcType) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(t.String())), nil
}

func (t *HpcType) UnmarshalText(b []byte) error {
	return t.Parse(string(b))
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var ELogLevel = LogLevel(0)

type LogLevel uint8

func (LogLevel) None() LogLevel    { return LogLevel(0) }
func (LogLevel) Fatal() LogLevel   { return LogLevel(1) }
func (LogLevel) Panic() LogLevel   { return LogLevel(2) }
func (LogLevel) Error() LogLevel   { return LogLevel(3) }
func (LogLevel) Warning() LogLevel { return LogLevel(4) }
func (LogLevel) Info() LogLevel    { return LogLevel(5) }
func (LogLevel) Debug() LogLevel   { return LogLevel(6) }

func (ll *LogLevel) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(ll), s, true, true)
	if err == nil {
		*ll = val.(LogLevel)
	}
	return err
}

func (ll LogLevel) String() string {
	switch ll {
	case ELogLevel.None():
		return "NONE"
	case ELogLevel.Fatal():
		return "FATAL"
	case ELogLevel.Panic():
		return "PANIC"
	case ELogLevel.Error():
		return "ERR"
	case ELogLevel.Warning():
		return "WARN"
	case ELogLevel.Info():
		return "INFO"
	case ELogLevel.Debug():
		return "DBG"
	default:
		return enum.StringInt(ll, reflect.TypeOf(ll))
	}
}
