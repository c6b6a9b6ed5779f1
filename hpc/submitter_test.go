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

package hpc

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
	"github.com/daniel-thom/jade/jobs"
)

// scriptedManager plays the cluster: a submission parses the run script to
// find its batch sub-configuration, and after a fixed number of status polls
// the batch "finishes" by writing a result file per job.
type scriptedManager struct {
	outputDir       string
	pollsToFinish   int
	failJobs        common.StringSet
	failSubmissions bool

	submitCount   int
	subConfigs    []string
	inFlight      map[string]*scriptedBatch
	nextID        int
	maxConcurrent int
}

type scriptedBatch struct {
	remainingPolls int
	batch          *jobs.Configuration
}

func newScriptedManager(outputDir string, pollsToFinish int) *scriptedManager {
	return &scriptedManager{
		outputDir:     outputDir,
		pollsToFinish: pollsToFinish,
		failJobs:      common.NewStringSet(),
		inFlight:      make(map[string]*scriptedBatch),
		nextID:        1,
	}
}

func (m *scriptedManager) Name() string { return "scripted" }

func (m *scriptedManager) Submit(outputDir, name, scriptPath string) (string, error) {
	if m.failSubmissions {
		return "", errors.New("cluster is down")
	}
	subConfigPath, err := runJobsConfigPath(scriptPath)
	if err != nil {
		return "", err
	}
	batch, err := jobs.LoadConfiguration(subConfigPath)
	if err != nil {
		return "", err
	}

	m.submitCount++
	m.subConfigs = append(m.subConfigs, filepath.Base(subConfigPath))
	jobID := strconv.Itoa(m.nextID)
	m.nextID++
	m.inFlight[jobID] = &scriptedBatch{remainingPolls: m.pollsToFinish, batch: batch}
	if len(m.inFlight) > m.maxConcurrent {
		m.maxConcurrent = len(m.inFlight)
	}
	return jobID, nil
}

func (m *scriptedManager) CheckStatus(jobID string) (common.HpcJobStatus, error) {
	batch, ok := m.inFlight[jobID]
	if !ok {
		return common.EHpcJobStatus.None(), nil
	}
	batch.remainingPolls--
	if batch.remainingPolls > 0 {
		return common.EHpcJobStatus.Running(), nil
	}
	for _, job := range batch.batch.Jobs {
		returnCode := 0
		if m.failJobs.Contains(job.Name) {
			returnCode = 1
		}
		err := jobs.WriteResult(m.outputDir, jobs.Result{
			Name:           job.Name,
			ReturnCode:     returnCode,
			ExecTimeS:      0.1,
			CompletionTime: time.Now().UTC(),
		})
		if err != nil {
			return common.EHpcJobStatus.None(), err
		}
	}
	delete(m.inFlight, jobID)
	return common.EHpcJobStatus.None(), nil
}

func runJobsConfigPath(scriptPath string) (string, error) {
	contents, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(contents), "\n") {
		fields := strings.Fields(line)
		for i, field := range fields {
			if field == "run-jobs" && i+1 < len(fields) {
				return fields[i+1], nil
			}
		}
	}
	return "", errors.New("no run-jobs invocation in " + scriptPath)
}

func testParams() SubmitterParams {
	return SubmitterParams{
		PerNodeBatchSize: 500,
		QueueDepth:       16,
		PollInterval:     5 * time.Millisecond,
	}
}

func newTestSubmitter(t *testing.T, config *jobs.Configuration, manager IClusterManager,
	sink events.IEventSink, params SubmitterParams) (*HpcSubmitter, *jobs.ResultsAggregator, string) {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "job_inputs.json")
	assert.NoError(t, config.Save(configFile))
	aggregator, err := jobs.NewResultsAggregator(dir)
	assert.NoError(t, err)
	return NewHpcSubmitter(config, configFile, dir, manager, aggregator, sink, nil, params), aggregator, dir
}

func eventsNamed(sink *memorySink, name string) []events.Event {
	var matched []events.Event
	for _, event := range sink.collected {
		if event.Name == name {
			matched = append(matched, event)
		}
	}
	return matched
}

func TestHpcSubmitterRunsAllJobsInOneBatch(t *testing.T) {
	a := assert.New(t)
	sink := &memorySink{}
	config := jobs.NewConfiguration([]*jobs.Job{
		jobs.NewJob("1", "a"), jobs.NewJob("2", "b"), jobs.NewJob("3", "c"),
	})

	s, aggregator, dir := newTestSubmitter(t, config, nil, sink, testParams())
	manager := newScriptedManager(dir, 2)
	s.manager = manager

	a.NoError(s.Run())
	a.Equal(1, manager.submitCount)
	a.Equal(3, aggregator.CompletedCount())
	a.Equal(3, len(aggregator.GetSuccessfulResults()))

	// one sub-configuration next to the master, the run script in output
	subConfig, err := jobs.LoadConfiguration(filepath.Join(dir, "job_inputs_batch_1.json"))
	a.NoError(err)
	a.Equal(3, len(subConfig.Jobs))

	script, err := os.ReadFile(filepath.Join(dir, "run_batch_1.sh"))
	a.NoError(err)
	a.True(strings.HasPrefix(string(script), "#!/bin/bash\n"))
	a.Contains(string(script), "run-jobs")
	a.Contains(string(script), "--output="+dir)

	submits := eventsNamed(sink, events.EventNameHpcSubmit)
	a.Equal(1, len(submits))
	a.Equal("Submitted HPC batch", submits[0].Message)
	a.Equal("job_inputs", submits[0].Source)
	a.Equal(3, submits[0].Data["batch_size"])
	a.Equal(0, submits[0].Data["num_blocked"])
	a.Equal(500, submits[0].Data["per_node_batch_size"])
	a.Equal(1, len(eventsNamed(sink, events.EventNameHpcJobAssigned)))
}

func TestHpcSubmitterBoundsInFlightBatches(t *testing.T) {
	a := assert.New(t)

	var toRun []*jobs.Job
	for i := 1; i <= 12; i++ {
		toRun = append(toRun, jobs.NewJob(strconv.Itoa(i), "x"))
	}
	params := testParams()
	params.PerNodeBatchSize = 1
	params.QueueDepth = 3

	s, aggregator, dir := newTestSubmitter(t, jobs.NewConfiguration(toRun), nil, nil, params)
	manager := newScriptedManager(dir, 2)
	s.manager = manager

	a.NoError(s.Run())
	a.Equal(12, manager.submitCount)
	a.LessOrEqual(manager.maxConcurrent, 3)
	a.Equal(12, aggregator.CompletedCount())
}

func TestHpcSubmitterHonorsDependencies(t *testing.T) {
	a := assert.New(t)
	sink := &memorySink{}
	config := jobs.NewConfiguration([]*jobs.Job{
		jobs.NewJob("1", "a"),
		jobs.NewJob("2", "b", "1"),
		jobs.NewJob("3", "c"),
	})

	s, aggregator, dir := newTestSubmitter(t, config, nil, sink, testParams())
	manager := newScriptedManager(dir, 1)
	s.manager = manager

	a.NoError(s.Run())

	// jobs 1 and 3 ride the first batch; 2 waits for 1's result
	a.Equal([]string{"job_inputs_batch_1.json", "job_inputs_batch_2.json"}, manager.subConfigs)
	first, err := jobs.LoadConfiguration(filepath.Join(dir, "job_inputs_batch_1.json"))
	a.NoError(err)
	a.Equal([]string{"1", "3"}, first.JobNames().Slice())
	second, err := jobs.LoadConfiguration(filepath.Join(dir, "job_inputs_batch_2.json"))
	a.NoError(err)
	a.Equal([]string{"2"}, second.JobNames().Slice())

	submits := eventsNamed(sink, events.EventNameHpcSubmit)
	a.Equal(2, len(submits))
	a.Equal(1, submits[0].Data["num_blocked"])
	a.Equal(3, aggregator.CompletedCount())
}

func TestHpcSubmitterTryAddPacksChains(t *testing.T) {
	a := assert.New(t)
	config := jobs.NewConfiguration([]*jobs.Job{
		jobs.NewJob("1", "a"),
		jobs.NewJob("2", "b", "1"),
		jobs.NewJob("3", "c", "2"),
	})
	params := testParams()
	params.TryAddBlockedJobs = true

	s, aggregator, dir := newTestSubmitter(t, config, nil, nil, params)
	manager := newScriptedManager(dir, 1)
	s.manager = manager

	a.NoError(s.Run())
	a.Equal(1, manager.submitCount)
	a.Equal(3, aggregator.CompletedCount())

	subConfig, err := jobs.LoadConfiguration(filepath.Join(dir, "job_inputs_batch_1.json"))
	a.NoError(err)
	a.Equal(3, len(subConfig.Jobs))
	a.Equal("1", subConfig.Jobs[0].Name)
	a.Equal("3", subConfig.Jobs[2].Name)
	a.True(subConfig.Jobs[1].GetBlockingJobs().Contains("1"))
}

func TestHpcSubmitterDetectsDependencyCycles(t *testing.T) {
	a := assert.New(t)
	sink := &memorySink{}
	config := jobs.NewConfiguration([]*jobs.Job{
		jobs.NewJob("a", "x", "b"),
		jobs.NewJob("b", "y", "a"),
	})

	s, _, dir := newTestSubmitter(t, config, nil, sink, testParams())
	manager := newScriptedManager(dir, 1)
	s.manager = manager

	err := s.Run()
	a.ErrorContains(err, "dependencies form a cycle")
	a.ErrorContains(err, "a, b")
	a.Zero(manager.submitCount)
	a.Empty(eventsNamed(sink, events.EventNameHpcSubmit))
	a.Equal(1, len(eventsNamed(sink, events.EventNameUnhandledError)))
}

func TestHpcSubmitterSubmitFailureIsFatal(t *testing.T) {
	a := assert.New(t)
	sink := &memorySink{}
	config := jobs.NewConfiguration([]*jobs.Job{jobs.NewJob("1", "a")})

	s, aggregator, dir := newTestSubmitter(t, config, nil, sink, testParams())
	manager := newScriptedManager(dir, 1)
	manager.failSubmissions = true
	s.manager = manager

	err := s.Run()
	a.ErrorContains(err, "failed to submit")
	a.Zero(aggregator.CompletedCount())
	a.Equal(1, len(eventsNamed(sink, events.EventNameUnhandledError)))
}

func TestHpcSubmitterFailedJobsStillUnblockDependents(t *testing.T) {
	a := assert.New(t)
	config := jobs.NewConfiguration([]*jobs.Job{
		jobs.NewJob("1", "a"),
		jobs.NewJob("2", "b", "1"),
	})

	s, aggregator, dir := newTestSubmitter(t, config, nil, nil, testParams())
	manager := newScriptedManager(dir, 1)
	manager.failJobs.Add("1")
	s.manager = manager

	a.NoError(s.Run())
	a.Equal(2, aggregator.CompletedCount())
	failed := aggregator.GetFailedResults()
	a.Equal(1, len(failed))
	a.Equal("1", failed[0].Name)
	successful := aggregator.GetSuccessfulResults()
	a.Equal(1, len(successful))
	a.Equal("2", successful[0].Name)
}

func TestHpcSubmitterSkipsBlockersWithSeededResults(t *testing.T) {
	a := assert.New(t)

	// a restart reruns job 2; its blocker succeeded in the previous run
	config := jobs.NewConfiguration([]*jobs.Job{jobs.NewJob("2", "b", "1")})
	s, aggregator, dir := newTestSubmitter(t, config, nil, nil, testParams())
	manager := newScriptedManager(dir, 1)
	s.manager = manager
	aggregator.Seed([]jobs.Result{{Name: "1", ReturnCode: 0}})

	a.NoError(s.Run())
	a.Equal(1, manager.submitCount)
	a.True(aggregator.HasResult("2"))
}
