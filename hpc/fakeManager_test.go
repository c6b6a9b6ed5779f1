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

//go:build !windows

package hpc

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daniel-thom/jade/common"
)

func TestLocalClusterManagerRunsScript(t *testing.T) {
	a := assert.New(t)
	dir := t.TempDir()

	marker := filepath.Join(dir, "ran.txt")
	scriptPath := filepath.Join(dir, "run_batch_1.sh")
	a.NoError(common.CreateScript(scriptPath, fmt.Sprintf("#!/bin/bash\ntouch %s\nsleep 0.2\n", marker)))

	m := newLocalClusterManager("fake", false, nil)
	jobID, err := m.Submit(dir, "test_batch_1", scriptPath)
	a.NoError(err)
	a.NotEmpty(jobID)

	status, err := m.CheckStatus(jobID)
	a.NoError(err)
	a.Equal(common.EHpcJobStatus.Queued(), status)

	status, err = m.CheckStatus(jobID)
	a.NoError(err)
	a.Equal(common.EHpcJobStatus.Running(), status)

	deadline := time.Now().Add(5 * time.Second)
	for status != common.EHpcJobStatus.None() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		status, err = m.CheckStatus(jobID)
		a.NoError(err)
	}
	a.Equal(common.EHpcJobStatus.None(), status)
	a.FileExists(marker)
}

func TestLocalClusterManagerFailMode(t *testing.T) {
	a := assert.New(t)

	m := newLocalClusterManager("fake", true, nil)
	_, err := m.Submit(t.TempDir(), "test_batch_1", "/does/not/matter.sh")
	a.ErrorContains(err, "rejected submission test_batch_1")
}

func TestLocalClusterManagerUnknownJob(t *testing.T) {
	a := assert.New(t)

	m := newLocalClusterManager("local", false, nil)
	status, err := m.CheckStatus("no-such-id")
	a.NoError(err)
	a.Equal(common.EHpcJobStatus.None(), status)
}

func TestNewClusterManagerSelection(t *testing.T) {
	a := assert.New(t)

	t.Setenv("FAKE_HPC_CLUSTER", "")
	m, err := NewClusterManager(&Config{HPC: Params{HpcType: common.EHpcType.Slurm()}}, nil)
	a.NoError(err)
	a.Equal("slurm", m.Name())

	m, err = NewClusterManager(LocalConfig(), nil)
	a.NoError(err)
	a.Equal("local", m.Name())

	m, err = NewClusterManager(&Config{HPC: Params{HpcType: common.EHpcType.Fake()}}, nil)
	a.NoError(err)
	a.Equal("fake", m.Name())

	// the environment beats the profile
	t.Setenv("FAKE_HPC_CLUSTER", "1")
	m, err = NewClusterManager(&Config{HPC: Params{HpcType: common.EHpcType.Slurm()}}, nil)
	a.NoError(err)
	a.Equal("fake", m.Name())

	t.Setenv("FAKE_HPC_CLUSTER", "fail")
	m, err = NewClusterManager(LocalConfig(), nil)
	a.NoError(err)
	_, err = m.Submit(t.TempDir(), "b", "unused.sh")
	a.Error(err)
}
