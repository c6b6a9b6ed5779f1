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

package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/daniel-thom/jade/common"
)

// EventsFilename is the consolidated event cache inside an output directory.
const EventsFilename = "events.json"

// Matches live event logs and the numbered chunks the rotating writer leaves
// behind, but not the <name>_1.log copies made when a restart rotates away a
// previous run.
var eventLogRegex = regexp.MustCompile(`events(\.\d+)?\.log$`)

// Summary holds every event found in an output directory, sorted by
// timestamp. The first load consolidates the per-process event logs into
// events.json; later loads read the cache.
type Summary struct {
	outputDir string
	events    []Event
}

func NewSummary(outputDir string) (*Summary, error) {
	s := &Summary{outputDir: outputDir}

	cachePath := filepath.Join(outputDir, EventsFilename)
	if contents, err := os.ReadFile(cachePath); err == nil {
		if err := json.Unmarshal(contents, &s.events); err != nil {
			return nil, errors.Wrapf(err, "cannot parse %s", cachePath)
		}
		return s, nil
	}

	if err := s.consolidate(); err != nil {
		return nil, err
	}
	if err := s.save(cachePath); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Summary) consolidate() error {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return errors.Wrapf(err, "cannot read output directory %s", s.outputDir)
	}

	var logFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && eventLogRegex.MatchString(entry.Name()) {
			logFiles = append(logFiles, filepath.Join(s.outputDir, entry.Name()))
		}
	}

	perFile := make([][]Event, len(logFiles))
	var group errgroup.Group
	for i, logFile := range logFiles {
		i, logFile := i, logFile
		group.Go(func() error {
			parsed, err := parseEventLog(logFile)
			if err != nil {
				return err
			}
			perFile[i] = parsed
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, parsed := range perFile {
		s.events = append(s.events, parsed...)
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Timestamp.Before(s.events[j].Timestamp)
	})
	return nil
}

func parseEventLog(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open event log %s", path)
	}
	defer f.Close()

	var parsed []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, errors.Wrapf(err, "malformed event in %s", path)
		}
		parsed = append(parsed, event)
	}
	return parsed, errors.Wrapf(scanner.Err(), "cannot read event log %s", path)
}

func (s *Summary) save(cachePath string) error {
	serialized, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot serialize events")
	}
	return errors.Wrapf(os.WriteFile(cachePath, serialized, common.DEFAULT_FILE_PERM),
		"cannot write %s", cachePath)
}

// ListEvents returns the events with the given name, oldest first.
func (s *Summary) ListEvents(name string) []Event {
	var matched []Event
	for _, event := range s.events {
		if event.Name == name {
			matched = append(matched, event)
		}
	}
	return matched
}

// EventNames returns the sorted distinct names present in the summary.
func (s *Summary) EventNames() []string {
	names := common.NewStringSet()
	for _, event := range s.events {
		names.Add(event.Name)
	}
	return names.Slice()
}

// ShowEvents renders one table per requested event name. With no names it
// renders every name present.
func (s *Summary) ShowEvents(w io.Writer, names ...string) {
	if len(names) == 0 {
		names = s.EventNames()
	}
	for _, name := range names {
		matched := s.ListEvents(name)
		if len(matched) == 0 {
			fmt.Fprintf(w, "No events of type %s\n", name)
			continue
		}
		fmt.Fprintf(w, "Events of type %s from directory: %s\n", name, s.outputDir)

		dataKeys := common.NewStringSet()
		for key := range matched[0].Data {
			dataKeys.Add(key)
		}
		headers := append([]string{"timestamp", "source"}, dataKeys.Slice()...)

		rows := make([][]string, 0, len(matched))
		for _, event := range matched {
			row := []string{event.Timestamp.Format("2006-01-02 15:04:05"), event.Source}
			for _, key := range dataKeys.Slice() {
				if value, ok := event.Data[key]; ok {
					row = append(row, fmt.Sprintf("%v", value))
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}

		table := tablewriter.NewWriter(w)
		table.SetHeader(headers)
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
		table.AppendBulk(rows)
		table.Render()
		fmt.Fprintf(w, "Total events: %d\n\n", len(matched))
	}
}

// ShowEventNames prints the distinct event names on one line.
func (s *Summary) ShowEventNames(w io.Writer) {
	fmt.Fprintf(w, "Names:  %s\n", strings.Join(s.EventNames(), " "))
}
