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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
	"github.com/daniel-thom/jade/hpc"
	"github.com/daniel-thom/jade/jobs"
)

const (
	submitJobsLogName        = "submit_jobs"
	submitJobsEventsFilename = "submit_jobs_events.log"
	failedJobInputsFilename  = "failed_job_inputs.json"
	missingJobInputsFilename = "missing_job_inputs.json"
	resultsReportFilename    = "results.txt"
)

// represents the raw submit-jobs command input from the user
type rawSubmitJobsCmdArgs struct {
	configFile string

	hpcConfigFile     string
	local             bool
	maxNodes          int
	output            string
	perNodeBatchSize  int
	pollIntervalSec   float64
	numProcesses      int
	rotateLogs        bool
	verbose           bool
	restartFailed     bool
	restartMissing    bool
	generateReports   bool
	tryAddBlockedJobs bool
}

// validates and transforms raw input into cooked input
func (raw rawSubmitJobsCmdArgs) cook() (cookedSubmitJobsCmdArgs, error) {
	cooked := cookedSubmitJobsCmdArgs{
		configFile:        raw.configFile,
		hpcConfigFile:     raw.hpcConfigFile,
		local:             raw.local,
		maxNodes:          raw.maxNodes,
		outputDir:         raw.output,
		perNodeBatchSize:  raw.perNodeBatchSize,
		numProcesses:      raw.numProcesses,
		rotateLogs:        raw.rotateLogs,
		verbose:           raw.verbose,
		restartFailed:     raw.restartFailed,
		restartMissing:    raw.restartMissing,
		generateReports:   raw.generateReports,
		tryAddBlockedJobs: raw.tryAddBlockedJobs,
	}

	if raw.perNodeBatchSize <= 0 {
		return cooked, common.NewJadeError(common.EJadeError.InvalidParameter(),
			"per-node-batch-size must be greater than zero")
	}
	if raw.maxNodes <= 0 {
		return cooked, common.NewJadeError(common.EJadeError.InvalidParameter(),
			"max-nodes must be greater than zero")
	}
	if raw.pollIntervalSec <= 0 {
		return cooked, common.NewJadeError(common.EJadeError.InvalidParameter(),
			"poll-interval must be greater than zero")
	}
	if raw.numProcesses < 0 {
		return cooked, common.NewJadeError(common.EJadeError.InvalidParameter(),
			"num-processes cannot be negative")
	}
	cooked.pollInterval = time.Duration(raw.pollIntervalSec * float64(time.Second))
	return cooked, nil
}

type cookedSubmitJobsCmdArgs struct {
	configFile string

	hpcConfigFile     string
	local             bool
	maxNodes          int
	outputDir         string
	perNodeBatchSize  int
	pollInterval      time.Duration
	numProcesses      int
	rotateLogs        bool
	verbose           bool
	restartFailed     bool
	restartMissing    bool
	generateReports   bool
	tryAddBlockedJobs bool
}

func (cooked cookedSubmitJobsCmdArgs) process() error {
	if err := os.MkdirAll(cooked.outputDir, 0777); err != nil {
		return err
	}

	config, err := jobs.LoadConfiguration(cooked.configFile)
	if err != nil {
		return err
	}
	previous, err := jobs.ReadResults(cooked.outputDir)
	if err != nil {
		return err
	}

	runConfig := config
	submitConfigFile := cooked.configFile
	var seed []jobs.Result
	if cooked.restartFailed || cooked.restartMissing {
		var toRun []*jobs.Job
		toRun, seed = restartJobSelection(config, previous, cooked.restartFailed, cooked.restartMissing)
		if len(toRun) == 0 {
			glcm.Exit(func(format common.OutputFormat) string {
				return "There are no failed or missing jobs to restart."
			}, common.EExitCode.Success())
		}
		runConfig = config.WithJobs(toRun)
		submitConfigFile = filepath.Join(cooked.outputDir, restartConfigFilename(cooked.restartMissing))
		if err := runConfig.Save(submitConfigFile); err != nil {
			return err
		}
		// old results of the rerun jobs must go, or the aggregator would
		// complete them instantly
		if err := jobs.ClearResults(cooked.outputDir, jobNamesOf(toRun)); err != nil {
			return err
		}
	} else if len(previous) > 0 {
		names := config.JobNames()
		stale := make([]string, 0, len(previous))
		for _, result := range previous {
			if names.Contains(result.Name) {
				stale = append(stale, result.Name)
			}
		}
		if len(stale) > 0 {
			glcm.Info(fmt.Sprintf("Removing %d results of a previous run from %s", len(stale), cooked.outputDir))
			if err := jobs.ClearResults(cooked.outputDir, stale); err != nil {
				return err
			}
		}
	}

	logFolder := logPathFolderFor(cooked.outputDir)
	if err := os.MkdirAll(logFolder, 0777); err != nil {
		return err
	}
	if cooked.rotateLogs {
		if err := common.RotateFilenames(cooked.outputDir, ".log"); err != nil {
			return err
		}
		if logFolder != cooked.outputDir {
			if err := common.RotateFilenames(logFolder, ".log"); err != nil {
				return err
			}
		}
	}

	logLevel := common.Iff(cooked.verbose, common.ELogLevel.Debug(), common.ELogLevel.Info())
	logger := common.NewJobLogger(submitJobsLogName, logLevel, logFolder, "")
	logger.OpenLog()
	common.JadeCurrentJobLogger = logger
	glcm.RegisterCloseFunc(logger.CloseLog)

	sink, err := events.NewFileSink(filepath.Join(cooked.outputDir, submitJobsEventsFilename))
	if err != nil {
		return err
	}
	glcm.RegisterCloseFunc(func() { _ = sink.Close() })

	glcm.Init(common.GetStandardInitOutputBuilder(cooked.configFile, cooked.outputDir,
		filepath.Join(logFolder, submitJobsLogName+".log")))
	logger.Log(common.ELogLevel.Info(), common.GetCLIString())

	hpcConfig := hpc.LocalConfig()
	if !cooked.local {
		hpcConfig, err = hpc.LoadConfig(cooked.hpcConfigFile)
		if err != nil {
			return err
		}
	}
	manager, err := hpc.NewClusterManager(hpcConfig, logger)
	if err != nil {
		return err
	}

	aggregator, err := jobs.NewResultsAggregator(cooked.outputDir)
	if err != nil {
		return err
	}
	aggregator.Seed(seed)

	submitter := hpc.NewHpcSubmitter(runConfig, submitConfigFile, cooked.outputDir,
		manager, aggregator, sink, logger, hpc.SubmitterParams{
			PerNodeBatchSize:  cooked.perNodeBatchSize,
			QueueDepth:        cooked.maxNodes,
			PollInterval:      cooked.pollInterval,
			NumProcesses:      cooked.numProcesses,
			TryAddBlockedJobs: cooked.tryAddBlockedJobs,
			Verbose:           cooked.verbose,
		})
	if err := submitter.Run(); err != nil {
		return err
	}

	if cooked.generateReports {
		if err := writeResultsReport(cooked.outputDir, aggregator.ListResults()); err != nil {
			glcm.Warn("cannot write the results report: " + err.Error())
		}
	}

	cooked.exitWithSummary(aggregator, runConfig)
	return nil
}

// restartJobSelection picks which jobs a restart reruns: jobs with a non-zero
// return code when restartFailed is set, jobs without any result when
// restartMissing is set. Results of the jobs that are not rerun come back as
// the seed, so dependents of an already-successful blocker stay unblocked.
func restartJobSelection(config *jobs.Configuration, previous []jobs.Result,
	restartFailed, restartMissing bool) ([]*jobs.Job, []jobs.Result) {

	resultsByName := make(map[string]jobs.Result, len(previous))
	for _, result := range previous {
		resultsByName[result.Name] = result
	}

	var toRun []*jobs.Job
	rerunNames := common.NewStringSet()
	for _, job := range config.Jobs {
		result, finished := resultsByName[job.Name]
		if restartFailed && finished && !result.IsSuccessful() {
			toRun = append(toRun, job)
			rerunNames.Add(job.Name)
			continue
		}
		if restartMissing && !finished {
			toRun = append(toRun, job)
			rerunNames.Add(job.Name)
		}
	}

	var seed []jobs.Result
	for _, result := range previous {
		if !rerunNames.Contains(result.Name) {
			seed = append(seed, result)
		}
	}
	return toRun, seed
}

// restartConfigFilename names the derived configuration written into the
// output directory. A combined restart keeps the missing name, since that
// pass runs last.
func restartConfigFilename(restartMissing bool) string {
	if restartMissing {
		return missingJobInputsFilename
	}
	return failedJobInputsFilename
}

func jobNamesOf(toRun []*jobs.Job) []string {
	names := make([]string, 0, len(toRun))
	for _, job := range toRun {
		names = append(names, job.Name)
	}
	return names
}

func writeResultsReport(outputDir string, results []jobs.Result) error {
	var sb strings.Builder
	writeResultsTable(&sb, results)
	return os.WriteFile(filepath.Join(outputDir, resultsReportFilename), []byte(sb.String()), common.DEFAULT_FILE_PERM)
}

type submitJobsSummaryTemplate struct {
	NumJobs       int
	NumSuccessful int
	NumFailed     int
	NumMissing    int
}

func (cooked cookedSubmitJobsCmdArgs) exitWithSummary(aggregator *jobs.ResultsAggregator, runConfig *jobs.Configuration) {
	numSuccessful := len(aggregator.GetSuccessfulResults())
	numFailed := len(aggregator.GetFailedResults())
	numMissing := len(aggregator.MissingJobs(runConfig))

	// individual job failures are data, not a command failure; the process
	// exit code only reflects whether the submission machinery worked
	glcm.Exit(func(format common.OutputFormat) string {
		if format == common.EOutputFormat.Json() {
			return common.GetJsonStringFromTemplate(submitJobsSummaryTemplate{
				NumJobs:       len(runConfig.Jobs),
				NumSuccessful: numSuccessful,
				NumFailed:     numFailed,
				NumMissing:    numMissing,
			})
		}

		var sb strings.Builder
		sb.WriteString("\nSubmission finished.\n")
		sb.WriteString(fmt.Sprintf("Num jobs: %d\n", len(runConfig.Jobs)))
		sb.WriteString(fmt.Sprintf("Num successful: %d\n", numSuccessful))
		sb.WriteString(fmt.Sprintf("Num failed: %d\n", numFailed))
		sb.WriteString(fmt.Sprintf("Num missing: %d\n", numMissing))
		sb.WriteString("View the results with: jade show-results --output=" + cooked.outputDir)
		return sb.String()
	}, common.EExitCode.Success())
}

func init() {
	raw := rawSubmitJobsCmdArgs{}

	// submitJobsCmd represents the submit-jobs command
	submitJobsCmd := &cobra.Command{
		Use:     "submit-jobs [configFile]",
		Aliases: []string{"submit"},
		Short:   submitJobsCmdShortDescription,
		Long:    submitJobsCmdLongDescription,
		Example: submitJobsCmdExample,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("wrong number of arguments, please pass the configuration file to submit")
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
				glcm.Error("failed to perform submit-jobs command due to error: " + err.Error())
			}
		},
	}
	rootCmd.AddCommand(submitJobsCmd)

	submitJobsCmd.PersistentFlags().IntVarP(&raw.perNodeBatchSize, "per-node-batch-size", "b", 500, "Number of jobs to pack into one compute-node batch.")
	// -h belongs to cobra's help flag, so hpc-config has no shorthand
	submitJobsCmd.PersistentFlags().StringVar(&raw.hpcConfigFile, "hpc-config", "hpc_config.toml", "Path to the HPC profile (TOML).")
	submitJobsCmd.PersistentFlags().BoolVarP(&raw.local, "local", "l", false, "Run every batch as a local process instead of submitting to the cluster.")
	submitJobsCmd.PersistentFlags().IntVarP(&raw.maxNodes, "max-nodes", "n", 16, "Maximum number of node allocations outstanding at once.")
	submitJobsCmd.PersistentFlags().StringVarP(&raw.output, "output", "o", "output", "Directory for results, logs, and events.")
	submitJobsCmd.PersistentFlags().Float64VarP(&raw.pollIntervalSec, "poll-interval", "p", 60, "Seconds between cluster status polls.")
	submitJobsCmd.PersistentFlags().IntVarP(&raw.numProcesses, "num-processes", "q", 0, "Number of jobs each node runs in parallel. Defaults to the node's CPU count.")
	submitJobsCmd.PersistentFlags().BoolVar(&raw.rotateLogs, "rotate-logs", true, "Rename the previous run's log files with numeric suffixes before starting.")
	submitJobsCmd.PersistentFlags().BoolVar(&raw.verbose, "verbose", false, "Enable debug logging.")
	submitJobsCmd.PersistentFlags().BoolVar(&raw.restartFailed, "restart-failed", false, "Resubmit the jobs that failed in a previous run of this output directory.")
	submitJobsCmd.PersistentFlags().BoolVar(&raw.restartMissing, "restart-missing", false, "Resubmit the jobs that have no result in this output directory.")
	submitJobsCmd.PersistentFlags().BoolVar(&raw.generateReports, "reports", true, "Write results.txt after the run.")
	submitJobsCmd.PersistentFlags().BoolVar(&raw.tryAddBlockedJobs, "try-add-blocked-jobs", true, "Pack a blocked job into a batch when all of its blocking jobs ride the same batch.")
}
