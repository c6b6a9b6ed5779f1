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

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
)

func init() {
	var outputDir string
	var namesOnly bool

	// showEventsCmd represents the show-events command
	showEventsCmd := &cobra.Command{
		Use:     "show-events [eventNames...]",
		Short:   showEventsCmdShortDescription,
		Long:    showEventsCmdLongDescription,
		Example: showEventsCmdExample,
		Run: func(cmd *cobra.Command, args []string) {
			summary, err := events.NewSummary(outputDir)
			if err != nil {
				glcm.Error("failed to perform show-events command due to error: " + err.Error())
			}

			glcm.Exit(func(format common.OutputFormat) string {
				if format == common.EOutputFormat.Json() {
					return eventsJsonOutput(summary, namesOnly, args)
				}

				var sb strings.Builder
				if namesOnly {
					summary.ShowEventNames(&sb)
				} else {
					summary.ShowEvents(&sb, args...)
				}
				return strings.TrimRight(sb.String(), "\n")
			}, common.EExitCode.Success())
		},
	}
	rootCmd.AddCommand(showEventsCmd)

	showEventsCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "output", "Output directory of the submission to inspect.")
	showEventsCmd.PersistentFlags().BoolVar(&namesOnly, "names-only", false, "Only list the names of the events that occurred.")
}

func eventsJsonOutput(summary *events.Summary, namesOnly bool, names []string) string {
	if namesOnly {
		return common.GetJsonStringFromTemplate(summary.EventNames())
	}
	if len(names) == 0 {
		names = summary.EventNames()
	}
	byName := make(map[string][]events.Event, len(names))
	for _, name := range names {
		byName[name] = summary.ListEvents(name)
	}
	return common.GetJsonStringFromTemplate(byName)
}
