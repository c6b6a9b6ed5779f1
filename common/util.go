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

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CreateScript writes an executable shell script. The umask applies, so the
// typical result is mode 0755.
func CreateScript(path string, text string) error {
	return os.WriteFile(path, []byte(text), 0777)
}

// RotateFilenames renames every file in directory whose name ends with ext by
// appending the first free numeric index, ex: submit_jobs.log becomes
// submit_jobs_1.log. Used when a run reuses an output directory, so that the
// previous run's logs are not overwritten.
func RotateFilenames(directory string, ext string) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ext)
		for i := 1; ; i++ {
			candidate := filepath.Join(directory, fmt.Sprintf("%s_%d%s", base, i, ext))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				if err := os.Rename(filepath.Join(directory, entry.Name()), candidate); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// GetCLIString reconstructs the command line that started this process, for logging.
func GetCLIString() string {
	return filepath.Base(os.Args[0]) + " " + strings.Join(os.Args[1:], " ")
}
