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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
)

type memorySink struct {
	collected []events.Event
}

func (s *memorySink) Emit(event events.Event) error {
	s.collected = append(s.collected, event)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) names() []string {
	names := make([]string, 0, len(s.collected))
	for _, event := range s.collected {
		names = append(names, event.Name)
	}
	return names
}

type mockClusterManager struct {
	submitErr  error
	jobID      string
	statuses   []common.HpcJobStatus
	statusErrs []error
	checkCalls int
}

func (m *mockClusterManager) Name() string { return "mock" }

func (m *mockClusterManager) Submit(outputDir, name, scriptPath string) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return m.jobID, nil
}

func (m *mockClusterManager) CheckStatus(jobID string) (common.HpcJobStatus, error) {
	i := m.checkCalls
	m.checkCalls++
	if i < len(m.statusErrs) && m.statusErrs[i] != nil {
		return common.EHpcJobStatus.None(), m.statusErrs[i]
	}
	if i >= len(m.statuses) {
		i = len(m.statuses) - 1
	}
	return m.statuses[i], nil
}

func TestAsyncSubmitterLifecycle(t *testing.T) {
	a := assert.New(t)
	sink := &memorySink{}
	manager := &mockClusterManager{
		jobID: "777",
		statuses: []common.HpcJobStatus{
			common.EHpcJobStatus.Queued(),
			common.EHpcJobStatus.Running(),
			common.EHpcJobStatus.None(),
		},
	}

	s := NewAsyncHpcSubmitter(manager, "run_batch_1.sh", "test_batch_1", t.TempDir(), sink, nil)
	a.NoError(s.Run())
	a.Equal("777", s.JobID())

	done, err := s.IsComplete()
	a.NoError(err)
	a.False(done)

	done, err = s.IsComplete()
	a.NoError(err)
	a.False(done)

	done, err = s.IsComplete()
	a.NoError(err)
	a.True(done)

	// once complete, the cluster is not asked again
	calls := manager.checkCalls
	done, err = s.IsComplete()
	a.NoError(err)
	a.True(done)
	a.Equal(calls, manager.checkCalls)

	a.Equal([]string{
		events.EventNameHpcJobAssigned,
		events.EventNameHpcJobStateChange,
		events.EventNameHpcJobStateChange,
		events.EventNameHpcJobStateChange,
	}, sink.names())

	first := sink.collected[1]
	a.Equal("None", first.Data["old_state"])
	a.Equal("Queued", first.Data["new_state"])
	a.Equal("777", first.Data["job_id"])
	last := sink.collected[3]
	a.Equal("Running", last.Data["old_state"])
	a.Equal("None", last.Data["new_state"])
}

func TestAsyncSubmitterSubmitFailure(t *testing.T) {
	a := assert.New(t)
	manager := &mockClusterManager{submitErr: errors.New("sbatch: error: no allocation")}

	s := NewAsyncHpcSubmitter(manager, "run_batch_1.sh", "test_batch_1", t.TempDir(), nil, nil)
	err := s.Run()
	a.ErrorContains(err, "failed to submit test_batch_1")

	var jadeErr common.JadeError
	a.True(errors.As(err, &jadeErr))
	a.True(jadeErr.Equals(common.EJadeError.ExecutionError()))
}

func TestAsyncSubmitterSwallowsTransientStatusFailures(t *testing.T) {
	a := assert.New(t)
	manager := &mockClusterManager{
		jobID:      "8",
		statusErrs: []error{errors.New("squeue timed out"), nil},
		statuses: []common.HpcJobStatus{
			common.EHpcJobStatus.Running(),
			common.EHpcJobStatus.Running(),
			common.EHpcJobStatus.None(),
		},
	}

	s := NewAsyncHpcSubmitter(manager, "run_batch_1.sh", "test_batch_1", t.TempDir(), nil, nil)
	a.NoError(s.Run())

	done, err := s.IsComplete()
	a.NoError(err)
	a.False(done)

	done, err = s.IsComplete()
	a.NoError(err)
	a.False(done)

	done, err = s.IsComplete()
	a.NoError(err)
	a.True(done)
}

func TestAsyncSubmitterGivesUpAfterRepeatedStatusFailures(t *testing.T) {
	a := assert.New(t)
	statusErrs := make([]error, maxConsecutiveStatusFailures+5)
	for i := range statusErrs {
		statusErrs[i] = errors.New("squeue timed out")
	}
	manager := &mockClusterManager{
		jobID:      "9",
		statusErrs: statusErrs,
		statuses:   []common.HpcJobStatus{common.EHpcJobStatus.Running()},
	}

	s := NewAsyncHpcSubmitter(manager, "run_batch_1.sh", "test_batch_1", t.TempDir(), nil, nil)
	a.NoError(s.Run())

	for i := 0; i < maxConsecutiveStatusFailures-1; i++ {
		done, err := s.IsComplete()
		a.NoError(err)
		a.False(done)
	}
	done, err := s.IsComplete()
	a.NoError(err)
	a.True(done)
}

func TestAsyncSubmitterHasNoBlockingJobs(t *testing.T) {
	a := assert.New(t)

	s := NewAsyncHpcSubmitter(&mockClusterManager{jobID: "1"}, "x.sh", "b", t.TempDir(), nil, nil)
	a.Empty(s.GetBlockingJobs())
	a.Panics(func() { s.RemoveBlockingJob("1") })
}
