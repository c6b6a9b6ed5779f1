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
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/daniel-thom/jade/common"
)

const jobOutputDirName = "job-output"

func JobOutputDir(outputDir string) string {
	return filepath.Join(outputDir, jobOutputDirName)
}

// processJob executes one job's command through the shell on the local
// machine. Stdout and stderr go to job-output/<name>.log; the exit status
// becomes the job's result file.
type processJob struct {
	job       *Job
	outputDir string
	logger    common.ILogger
	logFile   *os.File
	start     time.Time
	waitDone  chan error
	finished  bool
}

func NewProcessJob(job *Job, outputDir string, logger common.ILogger) IAsyncJob {
	return &processJob{job: job, outputDir: outputDir, logger: logger}
}

func (p *processJob) Name() string {
	return p.job.Name
}

func (p *processJob) Run() error {
	logDir := JobOutputDir(p.outputDir)
	if err := os.MkdirAll(logDir, 0777); err != nil {
		return fmt.Errorf("cannot create job output directory %s: %w", logDir, err)
	}
	logFile, err := os.OpenFile(filepath.Join(logDir, p.job.Name+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC, common.DEFAULT_FILE_PERM)
	if err != nil {
		return fmt.Errorf("cannot create output log for job %s: %w", p.job.Name, err)
	}

	cmd := exec.Command("/bin/sh", "-c", p.job.Command)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	p.logFile = logFile
	p.start = time.Now()
	if err := cmd.Start(); err != nil {
		// a spawn failure is this job's failure, not the batch's
		if p.logger != nil {
			p.logger.Log(common.ELogLevel.Warning(), fmt.Sprintf("job %s failed to start: %v", p.job.Name, err))
		}
		return p.finish(1)
	}

	p.waitDone = make(chan error, 1)
	go func() {
		p.waitDone <- cmd.Wait()
	}()
	return nil
}

func (p *processJob) IsComplete() (bool, error) {
	if p.finished {
		return true, nil
	}
	select {
	case waitErr := <-p.waitDone:
		return true, p.finish(exitCodeOf(waitErr))
	default:
		return false, nil
	}
}

func (p *processJob) finish(returnCode int) error {
	p.finished = true
	p.logFile.Close()
	return WriteResult(p.outputDir, Result{
		Name:           p.job.Name,
		ReturnCode:     returnCode,
		ExecTimeS:      time.Since(p.start).Seconds(),
		CompletionTime: time.Now().UTC(),
	})
}

func exitCodeOf(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func (p *processJob) GetBlockingJobs() common.StringSet {
	return p.job.GetBlockingJobs()
}

func (p *processJob) RemoveBlockingJob(name string) {
	p.job.RemoveBlockingJob(name)
}
