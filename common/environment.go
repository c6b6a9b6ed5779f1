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

package common

import "os"

type EnvironmentVariable struct {
	Name         string
	DefaultValue string
	Description  string
}

// This array needs to be updated when a new public environment variable is added
var VisibleEnvironmentVariables = []EnvironmentVariable{
	EEnvironmentVariable.FakeHpcCluster(),
	EEnvironmentVariable.LogLocation(),
	EEnvironmentVariable.RuntimeEnvironment(),
}

var EEnvironmentVariable = EnvironmentVariable{}

func (EnvironmentVariable) FakeHpcCluster() EnvironmentVariable {
	return EnvironmentVariable{
		Name: "FAKE_HPC_CLUSTER",
		Description: "Forces the fake cluster backend regardless of the HPC profile, so that submissions " +
			"run as local processes. Set it to 'fail' to make every submission attempt fail.",
	}
}

func (EnvironmentVariable) LogLocation() EnvironmentVariable {
	return EnvironmentVariable{
		Name:        "JADE_LOG_LOCATION",
		Description: "Overrides where the log files are stored, to avoid filling up a disk.",
	}
}

func (EnvironmentVariable) RuntimeEnvironment() EnvironmentVariable {
	return EnvironmentVariable{
		Name:         "JADE_RUNTIME_ENVIRONMENT",
		Description:  "Names the module loaded by generated run scripts before they invoke jade on a compute node.",
		DefaultValue: "jade",
	}
}

// GetEnvironmentVariable reads the variable or falls back to its default value.
func GetEnvironmentVariable(env EnvironmentVariable) string {
	value := os.Getenv(env.Name)
	if value == "" {
		return env.DefaultValue
	}
	return value
}
