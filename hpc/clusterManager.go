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
)

// IClusterManager is one cluster backend. Submit asks for a node and returns
// the cluster's job id; CheckStatus reports what the cluster currently says
// about that id. An id the cluster no longer knows maps to
// EHpcJobStatus.None, which after a successful submission means the job
// finished.
type IClusterManager interface {
	Name() string
	Submit(outputDir, name, scriptPath string) (jobID string, err error)
	CheckStatus(jobID string) (common.HpcJobStatus, error)
}

// NewClusterManager picks the backend for a profile. Setting FAKE_HPC_CLUSTER
// overrides the profile with the fake backend; the value "fail" makes every
// submission attempt fail.
func NewClusterManager(config *Config, logger common.ILogger) (IClusterManager, error) {
	if env := common.GetEnvironmentVariable(common.EEnvironmentVariable.FakeHpcCluster()); env != "" {
		return newLocalClusterManager("fake", env == "fail", logger), nil
	}

	switch config.HPC.HpcType {
	case common.EHpcType.Slurm():
		return newSlurmManager(config.HPC, logger), nil
	case common.EHpcType.Local():
		return newLocalClusterManager("local", false, logger), nil
	case common.EHpcType.Fake():
		return newLocalClusterManager("fake", false, logger), nil
	default:
		return nil, common.NewJadeError(common.EJadeError.InvalidConfiguration(),
			fmt.Sprintf("unsupported hpc_type %s", config.HPC.HpcType))
	}
}
