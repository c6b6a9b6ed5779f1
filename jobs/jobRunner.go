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

package jobs

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
)

// JobRunner executes every job in a configuration on the local machine with
// a bounded number of concurrent processes. The scheduler invokes it on a
// compute node with the batch sub-configuration it wrote for that node.
//
// A job failing is an expected outcome recorded in its result file; Run only
// returns an error when the runner itself cannot do its work.
type JobRunner struct {
	config       *Configuration
	outputDir    string
	numProcesses int
	sink         events.IEventSink
	logger       common.ILogger

	// poll and sample cadence, overridable in tests
	PollInterval    time.Duration
	MonitorInterval time.Duration
}

func NewJobRunner(config *Configuration, outputDir string, numProcesses int,
	sink events.IEventSink, logger common.ILogger) *JobRunner {
	if numProcesses <= 0 {
		numProcesses = runtime.NumCPU()
	}
	return &JobRunner{
		config:          config,
		outputDir:       outputDir,
		numProcesses:    numProcesses,
		sink:            sink,
		logger:          logger,
		PollInterval:    time.Second,
		MonitorInterval: 10 * time.Second,
	}
}

func (r *JobRunner) Run() error {
	r.dropOutsideBlockers()

	if r.logger != nil {
		r.logger.Log(common.ELogLevel.Info(),
			fmt.Sprintf("running %d jobs with up to %d concurrent processes", len(r.config.Jobs), r.numProcesses))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if r.sink != nil {
		go NewResourceMonitor(r.sink, r.logger, r.MonitorInterval).Run(ctx)
	}

	toRun := make([]IAsyncJob, 0, len(r.config.Jobs))
	for _, job := range r.config.Jobs {
		toRun = append(toRun, NewProcessJob(job, r.outputDir, r.logger))
	}
	return NewJobQueue(r.numProcesses, r.PollInterval, r.logger).Run(toRun)
}

// dropOutsideBlockers trims blocking jobs that are not part of this
// configuration. The scheduler only dispatches a batch once such blockers
// have completed, so here they count as done.
func (r *JobRunner) dropOutsideBlockers() {
	names := r.config.JobNames()
	for _, job := range r.config.Jobs {
		for _, blocker := range job.GetBlockingJobs().Slice() {
			if !names.Contains(blocker) {
				job.RemoveBlockingJob(blocker)
				if r.logger != nil && r.logger.ShouldLog(common.ELogLevel.Debug()) {
					r.logger.Log(common.ELogLevel.Debug(),
						fmt.Sprintf("blocker %s of job %s is outside this batch", blocker, job.Name))
				}
			}
		}
	}
}
