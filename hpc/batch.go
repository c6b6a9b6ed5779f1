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
	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/jobs"
)

type batchJobs struct {
	jobs  []*jobs.Job
	names common.StringSet
}

func newBatchJobs() *batchJobs {
	return &batchJobs{names: common.NewStringSet()}
}

func (b *batchJobs) add(job *jobs.Job) {
	b.jobs = append(b.jobs, job)
	b.names.Add(job.Name)
}

func (b *batchJobs) numJobs() int {
	return len(b.jobs)
}

func (b *batchJobs) isJobBlocked(job *jobs.Job, tryAddBlockedJobs bool) bool {
	blocking := job.GetBlockingJobs()
	if len(blocking) == 0 {
		return false
	}
	if tryAddBlockedJobs && blocking.IsSubsetOf(b.names) {
		// the node's job runner manages execution order inside the batch
		return false
	}
	return true
}

// packBatch walks pending in order and fills a batch with jobs that can run.
// It returns the batch, the pending indices that were taken, and how many
// jobs it had to pass over because of their blockers.
func packBatch(pending []*jobs.Job, perNodeBatchSize int, tryAddBlockedJobs bool) (*batchJobs, []int, int) {
	batch := newBatchJobs()
	var taken []int
	numBlocked := 0
	for i, job := range pending {
		if batch.isJobBlocked(job, tryAddBlockedJobs) {
			numBlocked++
			continue
		}
		batch.add(job)
		taken = append(taken, i)
		if batch.numJobs() >= perNodeBatchSize {
			break
		}
	}
	return batch, taken, numBlocked
}
