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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValues(t *testing.T) {
	a := assert.New(t)

	a.Equal(Status(0), EStatus.Good())
	a.Equal(Status(1), EStatus.Error())
	a.Equal(Status(2), EStatus.InProgress())

	a.Equal(ExitCode(0), EStatus.Good().ExitCode())
	a.Equal(ExitCode(1), EStatus.Error().ExitCode())
}

func TestStatusParse(t *testing.T) {
	a := assert.New(t)

	var s Status
	a.NoError(s.Parse("good"))
	a.Equal(EStatus.Good(), s)

	a.NoError(s.Parse("Error"))
	a.Equal(EStatus.Error(), s)
	a.Equal("Error", s.String())

	a.Error(s.Parse("bogus"))
}

func TestHpcJobStatusRoundTrip(t *testing.T) {
	a := assert.New(t)

	for _, status := range []HpcJobStatus{
		EHpcJobStatus.None(),
		EHpcJobStatus.Queued(),
		EHpcJobStatus.Running(),
		EHpcJobStatus.Complete(),
	} {
		var parsed HpcJobStatus
		a.NoError(parsed.Parse(status.String()))
		a.Equal(status, parsed)

		serialized, err := json.Marshal(status)
		a.NoError(err)

		var deserialized HpcJobStatus
		a.NoError(json.Unmarshal(serialized, &deserialized))
		a.Equal(status, deserialized)
	}

	a.Equal("Queued", EHpcJobStatus.Queued().String())
}

func TestHpcTypeParse(t *testing.T) {
	a := assert.New(t)

	var ht HpcType
	a.NoError(ht.Parse("slurm"))
	a.Equal(EHpcType.Slurm(), ht)

	a.NoError(ht.UnmarshalText([]byte("fake")))
	a.Equal(EHpcType.Fake(), ht)

	text, err := EHpcType.Local().MarshalText()
	a.NoError(err)
	a.Equal("local", string(text))

	a.Error(ht.Parse("pbs"))
}

func TestLogLevelStrings(t *testing.T) {
	a := assert.New(t)

	a.Equal("INFO", ELogLevel.Info().String())
	a.Equal("WARN", ELogLevel.Warning().String())
	a.Equal("ERR", ELogLevel.Error().String())

	var ll LogLevel
	a.NoError(ll.Parse("debug"))
	a.Equal(ELogLevel.Debug(), ll)

	// severities order from fatal to debug
	a.True(ELogLevel.Fatal() < ELogLevel.Error())
	a.True(ELogLevel.Error() < ELogLevel.Warning())
	a.True(ELogLevel.Warning() < ELogLevel.Info())
	a.True(ELogLevel.Info() < ELogLevel.Debug())
}

func TestJadeErrorCodes(t *testing.T) {
	a := assert.New(t)

	err := NewJadeError(EJadeError.InvalidConfiguration(), "job 1 is blocked by 10")
	a.Equal("Invalid configuration. job 1 is blocked by 10", err.Error())
	a.True(err.Equals(EJadeError.InvalidConfiguration()))
	a.False(err.Equals(EJadeError.ExecutionError()))
	a.Equal(uint64(1), err.ErrorCode())
}
