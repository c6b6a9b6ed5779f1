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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationRoundTrip(t *testing.T) {
	a := assert.New(t)
	path := filepath.Join(t.TempDir(), "job_inputs.json")

	original := NewConfiguration([]*Job{
		NewJob("1", "bash run.sh 1"),
		NewJob("2", "bash run.sh 2", "1"),
	})
	a.NoError(original.Save(path))

	loaded, err := LoadConfiguration(path)
	a.NoError(err)
	a.Equal("0.1.0", loaded.FormatVersion)
	a.Equal(2, len(loaded.Jobs))
	a.Equal("1", loaded.Jobs[0].Name)
	a.Equal("bash run.sh 2", loaded.Jobs[1].Command)
	a.True(loaded.Jobs[1].GetBlockingJobs().Contains("1"))
	a.Empty(loaded.Jobs[0].GetBlockingJobs())
}

func TestLoadConfigurationRejectsBadInputs(t *testing.T) {
	a := assert.New(t)
	dir := t.TempDir()

	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		a.NoError(os.WriteFile(path, []byte(contents), 0644))
		return path
	}

	_, err := LoadConfiguration(filepath.Join(dir, "absent.json"))
	a.Error(err)

	_, err = LoadConfiguration(write("garbage.json", "not json"))
	a.Error(err)

	_, err = LoadConfiguration(write("dup.json",
		`{"format_version": "0.1.0", "jobs": [{"name": "1", "command": "a"}, {"name": "1", "command": "b"}]}`))
	a.ErrorContains(err, "duplicate job name 1")

	_, err = LoadConfiguration(write("unnamed.json",
		`{"format_version": "0.1.0", "jobs": [{"name": "", "command": "a"}]}`))
	a.ErrorContains(err, "empty name")

	_, err = LoadConfiguration(write("pathy.json",
		`{"format_version": "0.1.0", "jobs": [{"name": "a/b", "command": "a"}]}`))
	a.ErrorContains(err, "path separator")
}

func TestCheckJobDependencies(t *testing.T) {
	a := assert.New(t)

	good := NewConfiguration([]*Job{
		NewJob("1", "a"),
		NewJob("2", "b", "1"),
	})
	a.NoError(good.CheckJobDependencies())

	// job 1 depends on a job that does not exist
	bad := NewConfiguration([]*Job{NewJob("1", "a", "10")})
	err := bad.CheckJobDependencies()
	a.ErrorContains(err, "job 1 is blocked by 10, which is not in the configuration")
	a.ErrorContains(err, "Invalid configuration")

	selfBlocked := NewConfiguration([]*Job{NewJob("1", "a", "1")})
	a.ErrorContains(selfBlocked.CheckJobDependencies(), "blocked by itself")
}

func TestNewGenericCommandConfiguration(t *testing.T) {
	a := assert.New(t)
	path := filepath.Join(t.TempDir(), "commands.txt")
	a.NoError(os.WriteFile(path, []byte("echo one\n\n# a comment\necho two\n  echo three  \n"), 0644))

	c, err := NewGenericCommandConfiguration(path)
	a.NoError(err)
	a.Equal(3, len(c.Jobs))
	a.Equal("1", c.Jobs[0].Name)
	a.Equal("echo one", c.Jobs[0].Command)
	a.Equal("3", c.Jobs[2].Name)
	a.Equal("echo three", c.Jobs[2].Command)

	a.NoError(os.WriteFile(path, []byte("# only a comment\n"), 0644))
	_, err = NewGenericCommandConfiguration(path)
	a.ErrorContains(err, "no commands found")
}

func TestWithJobsSharesPointers(t *testing.T) {
	a := assert.New(t)

	c := NewConfiguration([]*Job{NewJob("1", "a"), NewJob("2", "b")})
	subset := c.WithJobs(c.Jobs[1:])
	a.Equal(1, len(subset.Jobs))
	a.Same(c.Jobs[1], subset.Jobs[0])
	a.Equal("0.1.0", subset.FormatVersion)

	byName := c.JobsByName()
	a.Same(c.Jobs[0], byName["1"])
}
