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
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/jobs"
)

func init() {
	var outputDir string
	var failedOnly bool

	// showResultsCmd represents the show-results command
	showResultsCmd := &cobra.Command{
		Use:   "show-results",
		Short: showResultsCmdShortDescription,
		Long:  showResultsCmdLongDescription,
		Run: func(cmd *cobra.Command, args []string) {
			results, err := jobs.ReadResults(outputDir)
			if err != nil {
				glcm.Error("failed to perform show-results command due to error: " + err.Error())
			}
			if failedOnly {
				failed := results[:0]
				for _, result := range results {
					if !result.IsSuccessful() {
						failed = append(failed, result)
					}
				}
				results = failed
			}

			glcm.Exit(func(format common.OutputFormat) string {
				if format == common.EOutputFormat.Json() {
					return common.GetJsonStringFromTemplate(results)
				}
				var sb strings.Builder
				writeResultsTable(&sb, results)
				return strings.TrimRight(sb.String(), "\n")
			}, common.EExitCode.Success())
		},
	}
	rootCmd.AddCommand(showResultsCmd)

	showResultsCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "output", "Output directory of the submission to inspect.")
	showResultsCmd.PersistentFlags().BoolVar(&failedOnly, "failed", false, "Only show the jobs that returned a non-zero code.")
}

// writeResultsTable renders results in the same table style as show-events.
func writeResultsTable(w io.Writer, results []jobs.Result) {
	numFailed := 0
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		if !result.IsSuccessful() {
			numFailed++
		}
		rows = append(rows, []string{
			result.Name,
			fmt.Sprintf("%d", result.ReturnCode),
			fmt.Sprintf("%.2f", result.ExecTimeS),
			result.CompletionTime.Format("2006-01-02 15:04:05"),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"name", "return code", "exec time (s)", "completion time"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows)
	table.Render()
	fmt.Fprintf(w, "Num results: %d\n", len(results))
	fmt.Fprintf(w, "Num failed: %d\n", numFailed)
}
