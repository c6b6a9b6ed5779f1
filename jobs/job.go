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

// Package jobs defines the submission inputs, the per-job results, and the
// bounded queue that runs asynchronous work on the submitting machine and on
// compute nodes.
package jobs

import "github.com/daniel-thom/jade/common"

// Job is one command to execute. BlockedBy names jobs that must finish before
// this one may start; the scheduler trims the set as blockers complete, so a
// Job in flight may hold fewer names than its serialized form did.
type Job struct {
	Name      string           `json:"name"`
	Command   string           `json:"command"`
	BlockedBy common.StringSet `json:"blocked_by"`
}

func NewJob(name, command string, blockedBy ...string) *Job {
	return &Job{Name: name, Command: command, BlockedBy: common.NewStringSet(blockedBy...)}
}

func (j *Job) GetBlockingJobs() common.StringSet {
	if j.BlockedBy == nil {
		j.BlockedBy = common.NewStringSet()
	}
	return j.BlockedBy
}

func (j *Job) RemoveBlockingJob(name string) {
	if j.BlockedBy != nil {
		j.BlockedBy.Remove(name)
	}
}
