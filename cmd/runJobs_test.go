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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunnerLogName(t *testing.T) {
	a := assert.New(t)
	a.Equal("run_jobs_batch_3", runnerLogName("config_batch_3.json"))
	a.Equal("run_jobs_batch_12", runnerLogName("/scratch/run1/inputs_batch_12.json"))
	a.Equal("run_jobs", runnerLogName("config.json"))
	a.Equal("run_jobs", runnerLogName("batch_5.json"))
}

func TestRunJobsCookRejectsNegativeProcesses(t *testing.T) {
	a := assert.New(t)
	raw := rawRunJobsCmdArgs{configFile: "config.json", output: "output", numProcesses: -1}
	_, err := raw.cook()
	a.ErrorContains(err, "num-processes cannot be negative")
}
