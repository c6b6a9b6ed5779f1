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
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/daniel-thom/jade/common"
)

const resultsDirName = "results"

// Result records how one job finished. Compute nodes write one result file
// per job; the submitter polls the directory to learn about completions, so
// the file is the unit of communication between the two processes.
type Result struct {
	Name           string    `json:"name"`
	ReturnCode     int       `json:"return_code"`
	ExecTimeS      float64   `json:"exec_time_s"`
	CompletionTime time.Time `json:"completion_time"`
}

func (r Result) IsSuccessful() bool {
	return r.ReturnCode == 0
}

func ResultsDir(outputDir string) string {
	return filepath.Join(outputDir, resultsDirName)
}

// WriteResult persists a result with a write-then-rename so a polling reader
// never sees a partial file.
func WriteResult(outputDir string, result Result) error {
	dir := ResultsDir(outputDir)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "cannot create results directory %s", dir)
	}
	serialized, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(err, "cannot serialize result for job %s", result.Name)
	}
	tmpPath := filepath.Join(dir, result.Name+".json.tmp")
	if err := os.WriteFile(tmpPath, serialized, common.DEFAULT_FILE_PERM); err != nil {
		return errors.Wrapf(err, "cannot write result for job %s", result.Name)
	}
	return errors.Wrapf(os.Rename(tmpPath, filepath.Join(dir, result.Name+".json")),
		"cannot finalize result for job %s", result.Name)
}

// ReadResults loads every finalized result in the output directory, sorted by
// job name. A missing results directory means nothing has finished yet.
func ReadResults(outputDir string) ([]Result, error) {
	dir := ResultsDir(outputDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read results directory %s", dir)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read result %s", entry.Name())
		}
		var result Result
		if err := json.Unmarshal(contents, &result); err != nil {
			return nil, errors.Wrapf(err, "malformed result %s", entry.Name())
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}
