// Copyright © Microsoft <wastore@microsoft.com>
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
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/daniel-thom/jade/common"
)

// localClusterManager stands in for a real cluster by running each submitted
// script as a child process. It backs --local runs and, via FAKE_HPC_CLUSTER,
// the tests. A submitted job is reported Queued once, Running while the
// process lives, and None after it exits.
type localClusterManager struct {
	name            string
	failSubmissions bool
	logger          common.ILogger

	mu       sync.Mutex
	statuses map[string]common.HpcJobStatus
}

func newLocalClusterManager(name string, failSubmissions bool, logger common.ILogger) *localClusterManager {
	return &localClusterManager{
		name:            name,
		failSubmissions: failSubmissions,
		logger:          logger,
		statuses:        make(map[string]common.HpcJobStatus),
	}
}

func (m *localClusterManager) Name() string {
	return m.name
}

func (m *localClusterManager) Submit(outputDir, name, scriptPath string) (string, error) {
	if m.failSubmissions {
		return "", errors.Errorf("%s cluster rejected submission %s", m.name, name)
	}

	cmd := exec.Command(scriptPath)
	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(err, "cannot start %s", scriptPath)
	}

	jobID := uuid.NewString()
	m.mu.Lock()
	m.statuses[jobID] = common.EHpcJobStatus.Queued()
	m.mu.Unlock()

	go func() {
		if err := cmd.Wait(); err != nil && m.logger != nil {
			m.logger.Log(common.ELogLevel.Warning(), fmt.Sprintf("job %s exited with an error: %v", jobID, err))
		}
		m.mu.Lock()
		delete(m.statuses, jobID)
		m.mu.Unlock()
	}()
	return jobID, nil
}

func (m *localClusterManager) CheckStatus(jobID string) (common.HpcJobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[jobID]
	if !ok {
		return common.EHpcJobStatus.None(), nil
	}
	if status == common.EHpcJobStatus.Queued() {
		m.statuses[jobID] = common.EHpcJobStatus.Running()
	}
	return status, nil
}
