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
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/daniel-thom/jade/common"
)

const (
	// one squeue feeds every in-flight submission within a poll round
	statusTTL          = 10 * time.Second
	minRefreshInterval = 1 * time.Second
	// squeue takes a moment to learn about a fresh sbatch; until then the
	// job must not look finished
	submittedStatusTTL = 30 * time.Second
)

var sbatchJobIDRegex = regexp.MustCompile(`Submitted batch job (\d+)`)

type slurmManager struct {
	params      Params
	logger      common.ILogger
	statusCache *cache.Cache
	lastRefresh time.Time
}

func newSlurmManager(params Params, logger common.ILogger) *slurmManager {
	return &slurmManager{
		params:      params,
		logger:      logger,
		statusCache: cache.New(statusTTL, time.Minute),
	}
}

func (m *slurmManager) Name() string {
	return "slurm"
}

func (m *slurmManager) Submit(outputDir, name, scriptPath string) (string, error) {
	args := []string{
		"--nodes=1",
		"--job-name=" + name,
		"--output=" + filepath.Join(outputDir, "job_output_%j.o"),
		"--error=" + filepath.Join(outputDir, "job_output_%j.e"),
	}
	if m.params.Allocation != "" {
		args = append(args, "--account="+m.params.Allocation)
	}
	if m.params.Partition != "" {
		args = append(args, "--partition="+m.params.Partition)
	}
	if m.params.QOS != "" {
		args = append(args, "--qos="+m.params.QOS)
	}
	if m.params.Walltime != "" {
		args = append(args, "--time="+m.params.Walltime)
	}
	if m.params.Mem != "" {
		args = append(args, "--mem="+m.params.Mem)
	}
	args = append(args, scriptPath)

	var combined string
	err := retry.Do(
		func() error {
			out, err := exec.Command("sbatch", args...).CombinedOutput()
			combined = string(out)
			return errors.Wrapf(err, "sbatch: %s", strings.TrimSpace(combined))
		},
		retry.Delay(1*time.Second),
		retry.Attempts(3),
	)
	if err != nil {
		return "", err
	}

	match := sbatchJobIDRegex.FindStringSubmatch(combined)
	if match == nil {
		return "", errors.Errorf("cannot find job id in sbatch output: %s", strings.TrimSpace(combined))
	}
	jobID := match[1]
	m.statusCache.Set(jobID, common.EHpcJobStatus.Queued(), submittedStatusTTL)
	return jobID, nil
}

func (m *slurmManager) CheckStatus(jobID string) (common.HpcJobStatus, error) {
	if cached, ok := m.statusCache.Get(jobID); ok {
		return cached.(common.HpcJobStatus), nil
	}
	if err := m.refreshStatuses(); err != nil {
		return common.EHpcJobStatus.None(), err
	}
	if cached, ok := m.statusCache.Get(jobID); ok {
		return cached.(common.HpcJobStatus), nil
	}
	// finished jobs age out of the squeue listing
	return common.EHpcJobStatus.None(), nil
}

func (m *slurmManager) refreshStatuses() error {
	if time.Since(m.lastRefresh) < minRefreshInterval {
		return nil
	}

	args := []string{"-h", "-o", "%i %t"}
	if user := os.Getenv("USER"); user != "" {
		args = append(args, "-u", user)
	}
	var combined string
	err := retry.Do(
		func() error {
			out, err := exec.Command("squeue", args...).CombinedOutput()
			combined = string(out)
			return errors.Wrapf(err, "squeue: %s", strings.TrimSpace(combined))
		},
		retry.Delay(1*time.Second),
		retry.Attempts(3),
	)
	if err != nil {
		return common.NewJadeError(common.EJadeError.ClusterUnavailable(), err.Error())
	}

	for _, line := range strings.Split(combined, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		m.statusCache.Set(fields[0], statusFromSlurmCode(fields[1]), statusTTL)
	}
	m.lastRefresh = time.Now()
	return nil
}

// statusFromSlurmCode maps squeue %t state codes. Terminal codes map to None
// because the job no longer occupies a node; an unknown code means the job is
// still in the queue's hands, so it counts as running.
func statusFromSlurmCode(code string) common.HpcJobStatus {
	switch code {
	case "PD":
		return common.EHpcJobStatus.Queued()
	case "R", "CF", "CG":
		return common.EHpcJobStatus.Running()
	case "CD", "CA", "F", "TO", "NF", "PR", "OOM":
		return common.EHpcJobStatus.None()
	default:
		return common.EHpcJobStatus.Running()
	}
}
