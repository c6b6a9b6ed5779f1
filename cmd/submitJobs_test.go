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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/jobs"
)

func validSubmitJobsArgs() rawSubmitJobsCmdArgs {
	return rawSubmitJobsCmdArgs{
		configFile:        "config.json",
		hpcConfigFile:     "hpc_config.toml",
		maxNodes:          16,
		output:            "output",
		perNodeBatchSize:  500,
		pollIntervalSec:   60,
		tryAddBlockedJobs: true,
	}
}

func TestSubmitJobsCookDefaults(t *testing.T) {
	a := assert.New(t)
	cooked, err := validSubmitJobsArgs().cook()
	a.NoError(err)
	a.Equal(60*time.Second, cooked.pollInterval)
	a.Equal(500, cooked.perNodeBatchSize)
	a.Equal(16, cooked.maxNodes)
	a.True(cooked.tryAddBlockedJobs)
}

func TestSubmitJobsCookSubSecondPollInterval(t *testing.T) {
	a := assert.New(t)
	raw := validSubmitJobsArgs()
	raw.pollIntervalSec = 0.25
	cooked, err := raw.cook()
	a.NoError(err)
	a.Equal(250*time.Millisecond, cooked.pollInterval)
}

func TestSubmitJobsCookRejectsBadValues(t *testing.T) {
	a := assert.New(t)

	raw := validSubmitJobsArgs()
	raw.perNodeBatchSize = 0
	_, err := raw.cook()
	a.ErrorContains(err, "per-node-batch-size must be greater than zero")

	raw = validSubmitJobsArgs()
	raw.maxNodes = -1
	_, err = raw.cook()
	a.ErrorContains(err, "max-nodes must be greater than zero")

	raw = validSubmitJobsArgs()
	raw.pollIntervalSec = 0
	_, err = raw.cook()
	a.ErrorContains(err, "poll-interval must be greater than zero")

	raw = validSubmitJobsArgs()
	raw.numProcesses = -2
	_, err = raw.cook()
	a.ErrorContains(err, "num-processes cannot be negative")

	var jadeErr common.JadeError
	a.ErrorAs(err, &jadeErr)
	a.True(jadeErr.Equals(common.EJadeError.InvalidParameter()))
}

func restartFixture() (*jobs.Configuration, []jobs.Result) {
	config := jobs.NewConfiguration([]*jobs.Job{
		jobs.NewJob("1", "a"),
		jobs.NewJob("2", "b"),
		jobs.NewJob("3", "c", "1"),
		jobs.NewJob("4", "d"),
	})
	// job 3 never produced a result
	previous := []jobs.Result{
		{Name: "1", ReturnCode: 0},
		{Name: "2", ReturnCode: 1},
		{Name: "4", ReturnCode: 0},
	}
	return config, previous
}

func TestRestartSelectionFailedOnly(t *testing.T) {
	a := assert.New(t)
	config, previous := restartFixture()

	toRun, seed := restartJobSelection(config, previous, true, false)
	a.Equal([]string{"2"}, jobNamesOf(toRun))
	a.Equal([]string{"1", "4"}, resultNamesOf(seed))
}

func TestRestartSelectionMissingOnly(t *testing.T) {
	a := assert.New(t)
	config, previous := restartFixture()

	toRun, seed := restartJobSelection(config, previous, false, true)
	a.Equal([]string{"3"}, jobNamesOf(toRun))
	// the failed result stays in the seed, so job 3 does not wait on a rerun
	a.Equal([]string{"1", "2", "4"}, resultNamesOf(seed))
}

func TestRestartSelectionBoth(t *testing.T) {
	a := assert.New(t)
	config, previous := restartFixture()

	toRun, seed := restartJobSelection(config, previous, true, true)
	a.Equal([]string{"2", "3"}, jobNamesOf(toRun))
	a.Equal([]string{"1", "4"}, resultNamesOf(seed))
}

func TestRestartSelectionNothingToDo(t *testing.T) {
	a := assert.New(t)
	config := jobs.NewConfiguration([]*jobs.Job{jobs.NewJob("1", "a")})
	previous := []jobs.Result{{Name: "1", ReturnCode: 0}}

	toRun, seed := restartJobSelection(config, previous, true, true)
	a.Empty(toRun)
	a.Equal([]string{"1"}, resultNamesOf(seed))
}

func TestRestartConfigFilename(t *testing.T) {
	a := assert.New(t)
	a.Equal("failed_job_inputs.json", restartConfigFilename(false))
	a.Equal("missing_job_inputs.json", restartConfigFilename(true))
}

func TestWriteResultsTable(t *testing.T) {
	a := assert.New(t)
	results := []jobs.Result{
		{Name: "1", ReturnCode: 0, ExecTimeS: 1.5, CompletionTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{Name: "2", ReturnCode: 42, ExecTimeS: 0.25, CompletionTime: time.Date(2024, 3, 1, 12, 1, 0, 0, time.UTC)},
	}

	var sb strings.Builder
	writeResultsTable(&sb, results)
	rendered := sb.String()
	a.Contains(rendered, "RETURN CODE")
	a.Contains(rendered, "42")
	a.Contains(rendered, "2024-03-01 12:01:00")
	a.Contains(rendered, "Num results: 2")
	a.Contains(rendered, "Num failed: 1")
}

func resultNamesOf(results []jobs.Result) []string {
	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Name)
	}
	return names
}
