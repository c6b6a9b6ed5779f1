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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/daniel-thom/jade/common"
)

// JobQueue runs IAsyncJobs with at most depth of them in flight. A submitted
// job waits in line while the queue is full or while any of its blocking jobs
// has not completed. The queue is not goroutine-safe; one owner submits and
// pumps it.
type JobQueue struct {
	depth        int
	pollInterval time.Duration
	outstanding  map[string]IAsyncJob
	queued       []IAsyncJob
	logger       common.ILogger
}

func NewJobQueue(depth int, pollInterval time.Duration, logger common.ILogger) *JobQueue {
	return &JobQueue{
		depth:        depth,
		pollInterval: pollInterval,
		outstanding:  make(map[string]IAsyncJob),
		logger:       logger,
	}
}

// Submit starts the job right away when there is capacity and nothing blocks
// it, otherwise the job waits for ProcessQueue to promote it.
func (q *JobQueue) Submit(job IAsyncJob) error {
	if q.IsFull() || len(job.GetBlockingJobs()) > 0 {
		q.queued = append(q.queued, job)
		q.debugLog(fmt.Sprintf("queued job %s", job.Name()))
		return nil
	}
	return q.start(job)
}

func (q *JobQueue) start(job IAsyncJob) error {
	if err := job.Run(); err != nil {
		return err
	}
	q.outstanding[job.Name()] = job
	q.debugLog(fmt.Sprintf("started job %s", job.Name()))
	return nil
}

func (q *JobQueue) IsFull() bool {
	return len(q.outstanding) >= q.depth
}

// ProcessQueue completes finished jobs, unblocks their dependents, and starts
// queued jobs while capacity allows. It returns the names of the jobs that
// completed during this pass.
func (q *JobQueue) ProcessQueue() ([]string, error) {
	var completed []string
	for name, job := range q.outstanding {
		done, err := job.IsComplete()
		if err != nil {
			return nil, err
		}
		if done {
			completed = append(completed, name)
		}
	}
	for _, name := range completed {
		delete(q.outstanding, name)
		q.debugLog(fmt.Sprintf("completed job %s", name))
		for _, waiting := range q.queued {
			if waiting.GetBlockingJobs().Contains(name) {
				waiting.RemoveBlockingJob(name)
			}
		}
	}

	var stillQueued []IAsyncJob
	for i, waiting := range q.queued {
		if q.IsFull() {
			stillQueued = append(stillQueued, q.queued[i:]...)
			break
		}
		if len(waiting.GetBlockingJobs()) > 0 {
			stillQueued = append(stillQueued, waiting)
			continue
		}
		if err := q.start(waiting); err != nil {
			q.queued = append(stillQueued, q.queued[i+1:]...)
			return nil, err
		}
	}
	q.queued = stillQueued
	return completed, nil
}

// Wait pumps the queue until every job has completed.
func (q *JobQueue) Wait() error {
	for len(q.outstanding) > 0 || len(q.queued) > 0 {
		if _, err := q.ProcessQueue(); err != nil {
			return err
		}
		if len(q.outstanding) == 0 && len(q.queued) == 0 {
			break
		}
		// nothing running and nothing startable means the queued jobs
		// block each other
		if len(q.outstanding) == 0 {
			var stuck []string
			for _, waiting := range q.queued {
				stuck = append(stuck, fmt.Sprintf("%s (blocked by %s)",
					waiting.Name(), strings.Join(waiting.GetBlockingJobs().Slice(), ", ")))
			}
			sort.Strings(stuck)
			return common.NewJadeError(common.EJadeError.InvalidConfiguration(),
				fmt.Sprintf("jobs can never run: %s", strings.Join(stuck, "; ")))
		}
		time.Sleep(q.pollInterval)
	}
	return nil
}

// Run submits every job and waits for all of them.
func (q *JobQueue) Run(toRun []IAsyncJob) error {
	for _, job := range toRun {
		if err := q.Submit(job); err != nil {
			return err
		}
	}
	return q.Wait()
}

func (q *JobQueue) OutstandingCount() int {
	return len(q.outstanding)
}

func (q *JobQueue) QueuedCount() int {
	return len(q.queued)
}

// OutstandingNames reports in-flight jobs, sorted, for teardown warnings.
func (q *JobQueue) OutstandingNames() []string {
	names := make([]string, 0, len(q.outstanding))
	for name := range q.outstanding {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (q *JobQueue) debugLog(msg string) {
	if q.logger != nil && q.logger.ShouldLog(common.ELogLevel.Debug()) {
		q.logger.Log(common.ELogLevel.Debug(), msg)
	}
}
