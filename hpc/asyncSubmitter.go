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
	"fmt"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
)

// Status checks can fail for a long time while the scheduler keeps polling,
// e.g. when squeue is overloaded. After this many consecutive failures the
// submission is written off as complete so the run can finish; the job's own
// results stay authoritative.
const maxConsecutiveStatusFailures = 10

// AsyncHpcSubmitter hands one batch to the cluster and tracks it until the
// cluster is done with it. It satisfies jobs.IAsyncJob so a JobQueue can
// bound how many batches are in flight at once.
type AsyncHpcSubmitter struct {
	manager   IClusterManager
	runScript string
	name      string
	outputDir string
	sink      events.IEventSink
	logger    common.ILogger

	jobID          string
	lastStatus     common.HpcJobStatus
	complete       bool
	statusFailures int
}

func NewAsyncHpcSubmitter(manager IClusterManager, runScript, name, outputDir string,
	sink events.IEventSink, logger common.ILogger) *AsyncHpcSubmitter {
	return &AsyncHpcSubmitter{
		manager:    manager,
		runScript:  runScript,
		name:       name,
		outputDir:  outputDir,
		sink:       sink,
		logger:     logger,
		lastStatus: common.EHpcJobStatus.None(),
	}
}

func (s *AsyncHpcSubmitter) Name() string {
	return s.name
}

func (s *AsyncHpcSubmitter) JobID() string {
	return s.jobID
}

func (s *AsyncHpcSubmitter) Run() error {
	jobID, err := s.manager.Submit(s.outputDir, s.name, s.runScript)
	if err != nil {
		return common.NewJadeError(common.EJadeError.ExecutionError(),
			fmt.Sprintf("failed to submit %s: %v", s.name, err))
	}
	s.jobID = jobID
	s.logInfo(fmt.Sprintf("Submission %s got job id %s", s.name, jobID))
	s.emit(events.NewEvent(s.name, events.CategoryHPC, events.EventNameHpcJobAssigned,
		"HPC job assigned", map[string]interface{}{"job_id": jobID}))
	return nil
}

func (s *AsyncHpcSubmitter) IsComplete() (bool, error) {
	if s.complete {
		return true, nil
	}

	status, err := s.manager.CheckStatus(s.jobID)
	if err != nil {
		s.statusFailures++
		s.logWarning(fmt.Sprintf("cannot check status of %s (failure %d of %d): %v",
			s.name, s.statusFailures, maxConsecutiveStatusFailures, err))
		if s.statusFailures >= maxConsecutiveStatusFailures {
			s.logWarning(fmt.Sprintf("giving up on status of %s; treating job %s as complete", s.name, s.jobID))
			s.complete = true
			return true, nil
		}
		return false, nil
	}
	s.statusFailures = 0

	if status != s.lastStatus {
		s.logInfo(fmt.Sprintf("Submission %s job %s changed status from %s to %s",
			s.name, s.jobID, s.lastStatus, status))
		s.emit(events.NewEvent(s.name, events.CategoryHPC, events.EventNameHpcJobStateChange,
			"HPC job state changed", map[string]interface{}{
				"job_id":    s.jobID,
				"old_state": s.lastStatus.String(),
				"new_state": status.String(),
			}))
		s.lastStatus = status
	}

	if status == common.EHpcJobStatus.None() || status == common.EHpcJobStatus.Complete() {
		s.complete = true
	}
	return s.complete, nil
}

func (s *AsyncHpcSubmitter) GetBlockingJobs() common.StringSet {
	return common.NewStringSet()
}

func (s *AsyncHpcSubmitter) RemoveBlockingJob(name string) {
	panic("hpc submissions have no blocking jobs")
}

func (s *AsyncHpcSubmitter) emit(event events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(event); err != nil {
		s.logWarning(fmt.Sprintf("cannot record %s event: %v", event.Name, err))
	}
}

func (s *AsyncHpcSubmitter) logInfo(msg string) {
	if s.logger != nil {
		s.logger.Log(common.ELogLevel.Info(), msg)
	}
}

func (s *AsyncHpcSubmitter) logWarning(msg string) {
	if s.logger != nil {
		s.logger.Log(common.ELogLevel.Warning(), msg)
	}
}
