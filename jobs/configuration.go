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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/daniel-thom/jade/common"
)

const formatVersion = "0.1.0"

// Configuration is the serialized set of jobs for one submission. Job order
// is preserved because the batch packer walks jobs positionally.
type Configuration struct {
	FormatVersion string `json:"format_version"`
	Jobs          []*Job `json:"jobs"`
}

func NewConfiguration(toRun []*Job) *Configuration {
	return &Configuration{FormatVersion: formatVersion, Jobs: toRun}
}

func LoadConfiguration(path string) (*Configuration, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read configuration %s", path)
	}
	var c Configuration
	if err := json.Unmarshal(contents, &c); err != nil {
		return nil, errors.Wrapf(err, "cannot parse configuration %s", path)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Configuration) validate() error {
	seen := common.NewStringSet()
	for _, job := range c.Jobs {
		if job.Name == "" {
			return common.NewJadeError(common.EJadeError.InvalidConfiguration(), "a job has an empty name")
		}
		// job names become result filenames
		if strings.ContainsAny(job.Name, "/\\") {
			return common.NewJadeError(common.EJadeError.InvalidConfiguration(),
				fmt.Sprintf("job name %s contains a path separator", job.Name))
		}
		if seen.Contains(job.Name) {
			return common.NewJadeError(common.EJadeError.InvalidConfiguration(),
				fmt.Sprintf("duplicate job name %s", job.Name))
		}
		seen.Add(job.Name)
	}
	return nil
}

// CheckJobDependencies verifies that every blocking job exists. It does not
// look for dependency cycles; those surface when the scheduler runs out of
// submittable jobs.
func (c *Configuration) CheckJobDependencies() error {
	names := c.JobNames()
	for _, job := range c.Jobs {
		for _, blocker := range job.GetBlockingJobs().Slice() {
			if blocker == job.Name {
				return common.NewJadeError(common.EJadeError.InvalidConfiguration(),
					fmt.Sprintf("job %s is blocked by itself", job.Name))
			}
			if !names.Contains(blocker) {
				return common.NewJadeError(common.EJadeError.InvalidConfiguration(),
					fmt.Sprintf("job %s is blocked by %s, which is not in the configuration", job.Name, blocker))
			}
		}
	}
	return nil
}

func (c *Configuration) JobNames() common.StringSet {
	names := common.NewStringSet()
	for _, job := range c.Jobs {
		names.Add(job.Name)
	}
	return names
}

func (c *Configuration) JobsByName() map[string]*Job {
	byName := make(map[string]*Job, len(c.Jobs))
	for _, job := range c.Jobs {
		byName[job.Name] = job
	}
	return byName
}

// WithJobs returns a configuration holding the given jobs. The Job pointers
// are shared with the receiver.
func (c *Configuration) WithJobs(toRun []*Job) *Configuration {
	return &Configuration{FormatVersion: formatVersion, Jobs: toRun}
}

func (c *Configuration) Serialize() ([]byte, error) {
	out := *c
	out.FormatVersion = formatVersion
	serialized, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize configuration")
	}
	return append(serialized, '\n'), nil
}

func (c *Configuration) Save(path string) error {
	serialized, err := c.Serialize()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, serialized, common.DEFAULT_FILE_PERM),
		"cannot write configuration %s", path)
}

// NewGenericCommandConfiguration builds a configuration from a text file with
// one shell command per line. Blank lines and lines starting with # are
// skipped. Jobs are named by their position, starting at 1.
func NewGenericCommandConfiguration(commandsPath string) (*Configuration, error) {
	f, err := os.Open(commandsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read commands file %s", commandsPath)
	}
	defer f.Close()

	var toRun []*Job
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		toRun = append(toRun, NewJob(strconv.Itoa(len(toRun)+1), line))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot read commands file %s", commandsPath)
	}
	if len(toRun) == 0 {
		return nil, common.NewJadeError(common.EJadeError.InvalidConfiguration(),
			fmt.Sprintf("no commands found in %s", commandsPath))
	}
	return NewConfiguration(toRun), nil
}
