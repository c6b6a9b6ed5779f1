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

package jobs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ResultsAggregator folds per-job result files into an in-memory view of what
// has completed. Update only ever adds: a result file observed once stays
// completed even if the file later disappears.
type ResultsAggregator struct {
	outputDir string
	completed map[string]Result
}

func NewResultsAggregator(outputDir string) (*ResultsAggregator, error) {
	dir := ResultsDir(outputDir)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, errors.Wrapf(err, "cannot create results directory %s", dir)
	}
	return &ResultsAggregator{outputDir: outputDir, completed: make(map[string]Result)}, nil
}

// Seed marks results as completed without reading the results directory.
// Restarts seed the jobs that are not being run again.
func (a *ResultsAggregator) Seed(results []Result) {
	for _, result := range results {
		a.completed[result.Name] = result
	}
}

// Update scans the results directory and returns the results that appeared
// since the last call.
func (a *ResultsAggregator) Update() ([]Result, error) {
	all, err := ReadResults(a.outputDir)
	if err != nil {
		return nil, err
	}
	var newly []Result
	for _, result := range all {
		if _, seen := a.completed[result.Name]; !seen {
			a.completed[result.Name] = result
			newly = append(newly, result)
		}
	}
	return newly, nil
}

func (a *ResultsAggregator) CompletedCount() int {
	return len(a.completed)
}

func (a *ResultsAggregator) HasResult(name string) bool {
	_, done := a.completed[name]
	return done
}

// ListResults returns every completed result sorted by job name.
func (a *ResultsAggregator) ListResults() []Result {
	results := make([]Result, 0, len(a.completed))
	for _, result := range a.completed {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

func (a *ResultsAggregator) GetSuccessfulResults() []Result {
	var successful []Result
	for _, result := range a.ListResults() {
		if result.IsSuccessful() {
			successful = append(successful, result)
		}
	}
	return successful
}

func (a *ResultsAggregator) GetFailedResults() []Result {
	var failed []Result
	for _, result := range a.ListResults() {
		if !result.IsSuccessful() {
			failed = append(failed, result)
		}
	}
	return failed
}

// MissingJobs returns the configured jobs that have no result, sorted by
// name.
func (a *ResultsAggregator) MissingJobs(c *Configuration) []string {
	var missing []string
	for _, job := range c.Jobs {
		if _, done := a.completed[job.Name]; !done {
			missing = append(missing, job.Name)
		}
	}
	sort.Strings(missing)
	return missing
}

// ClearResults removes the result files for the named jobs so they can run
// again. A job with no result file is ignored.
func ClearResults(outputDir string, names []string) error {
	for _, name := range names {
		path := filepath.Join(ResultsDir(outputDir), name+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "cannot remove result for job %s", name)
		}
	}
	return nil
}
