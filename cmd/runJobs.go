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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
	"github.com/daniel-thom/jade/jobs"
)

const runJobsLogName = "run_jobs"

var batchConfigRegex = regexp.MustCompile(`_batch_(\d+)\.json$`)

// runnerLogName derives the node's log name from the configuration filename,
// so concurrent batches writing to a shared filesystem do not collide:
// config_batch_3.json becomes run_jobs_batch_3.
func runnerLogName(configFile string) string {
	if m := batchConfigRegex.FindStringSubmatch(filepath.Base(configFile)); m != nil {
		return fmt.Sprintf("%s_batch_%s", runJobsLogName, m[1])
	}
	return runJobsLogName
}

type rawRunJobsCmdArgs struct {
	configFile string

	output       string
	numProcesses int
	verbose      bool
}

func (raw rawRunJobsCmdArgs) cook() (cookedRunJobsCmdArgs, error) {
	cooked := cookedRunJobsCmdArgs{
		configFile:   raw.configFile,
		outputDir:    raw.output,
		numProcesses: raw.numProcesses,
		verbose:      raw.verbose,
	}
	if raw.numProcesses < 0 {
		return cooked, common.NewJadeError(common.EJadeError.InvalidParameter(),
			"num-processes cannot be negative")
	}
	return cooked, nil
}

type cookedRunJobsCmdArgs struct {
	configFile string

	outputDir    string
	numProcesses int
	verbose      bool
}

func (cooked cookedRunJobsCmdArgs) process() error {
	if err := os.MkdirAll(cooked.outputDir, 0777); err != nil {
		return err
	}

	config, err := jobs.LoadConfiguration(cooked.configFile)
	if err != nil {
		return err
	}

	logFolder := logPathFolderFor(cooked.outputDir)
	if err := os.MkdirAll(logFolder, 0777); err != nil {
		return err
	}
	logLevel := common.Iff(cooked.verbose, common.ELogLevel.Debug(), common.ELogLevel.Info())
	logName := runnerLogName(cooked.configFile)
	logger := common.NewJobLogger(logName, logLevel, logFolder, "")
	logger.OpenLog()
	common.JadeCurrentJobLogger = logger
	glcm.RegisterCloseFunc(logger.CloseLog)

	sink, err := events.NewFileSink(filepath.Join(cooked.outputDir, logName+"_events.log"))
	if err != nil {
		return err
	}
	glcm.RegisterCloseFunc(func() { _ = sink.Close() })

	glcm.Init(common.GetStandardInitOutputBuilder(cooked.configFile, cooked.outputDir,
		filepath.Join(logFolder, logName+".log")))
	logger.Log(common.ELogLevel.Info(), common.GetCLIString())

	runner := jobs.NewJobRunner(config, cooked.outputDir, cooked.numProcesses, sink, logger)
	if err := runner.Run(); err != nil {
		return err
	}

	// a failed job is data for the submitter, not a runner failure, so the
	// exit code stays zero as long as every job produced a result
	results, err := jobs.ReadResults(cooked.outputDir)
	if err != nil {
		return err
	}
	names := config.JobNames()
	numFailed := 0
	numFinished := 0
	for _, result := range results {
		if !names.Contains(result.Name) {
			continue
		}
		numFinished++
		if !result.IsSuccessful() {
			numFailed++
		}
	}

	glcm.Exit(func(format common.OutputFormat) string {
		if format == common.EOutputFormat.Json() {
			return common.GetJsonStringFromTemplate(submitJobsSummaryTemplate{
				NumJobs:       len(config.Jobs),
				NumSuccessful: numFinished - numFailed,
				NumFailed:     numFailed,
				NumMissing:    len(config.Jobs) - numFinished,
			})
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("\nRan %d jobs.\n", len(config.Jobs)))
		sb.WriteString(fmt.Sprintf("Num successful: %d\n", numFinished-numFailed))
		sb.WriteString(fmt.Sprintf("Num failed: %d", numFailed))
		return sb.String()
	}, common.EExitCode.Success())
	return nil
}

func init() {
	raw := rawRunJobsCmdArgs{}

	// runJobsCmd represents the run-jobs command, which the generated batch
	// scripts invoke on compute nodes
	runJobsCmd := &cobra.Command{
		Use:     "run-jobs [configFile]",
		Short:   runJobsCmdShortDescription,
		Long:    runJobsCmdLongDescription,
		Example: runJobsCmdExample,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("wrong number of arguments, please pass the configuration file to run")
			}
			raw.configFile = args[0]
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cooked, err := raw.cook()
			if err != nil {
				glcm.Error("failed to parse user input due to error: " + err.Error())
			}

			err = cooked.process()
			if err != nil {
				glcm.Error("failed to perform run-jobs command due to error: " + err.Error())
			}
		},
	}
	rootCmd.AddCommand(runJobsCmd)

	runJobsCmd.PersistentFlags().StringVarP(&raw.output, "output", "o", "output", "Directory for results, logs, and events.")
	runJobsCmd.PersistentFlags().IntVarP(&raw.numProcesses, "num-processes", "q", 0, "Number of jobs to run in parallel. Defaults to the CPU count.")
	runJobsCmd.PersistentFlags().BoolVar(&raw.verbose, "verbose", false, "Enable debug logging.")
}
