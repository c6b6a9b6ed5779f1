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

package hpc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
	"github.com/daniel-thom/jade/jobs"
)

type SubmitterParams struct {
	PerNodeBatchSize  int
	QueueDepth        int
	PollInterval      time.Duration
	NumProcesses      int
	TryAddBlockedJobs bool
	Verbose           bool
}

// HpcSubmitter drives one submission end to end: pack ready jobs into
// batches, hand each batch to the cluster with at most QueueDepth of them in
// flight, and fold completed results back in to unblock dependent jobs.
type HpcSubmitter struct {
	name       string
	config     *jobs.Configuration
	configFile string
	outputDir  string
	manager    IClusterManager
	aggregator *jobs.ResultsAggregator
	sink       events.IEventSink
	logger     common.ILogger
	params     SubmitterParams
	batchIndex int
}

func NewHpcSubmitter(config *jobs.Configuration, configFile, outputDir string,
	manager IClusterManager, aggregator *jobs.ResultsAggregator,
	sink events.IEventSink, logger common.ILogger, params SubmitterParams) *HpcSubmitter {
	name := strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	return &HpcSubmitter{
		name:       name,
		config:     config,
		configFile: configFile,
		outputDir:  outputDir,
		manager:    manager,
		aggregator: aggregator,
		sink:       sink,
		logger:     logger,
		params:     params,
		batchIndex: 1,
	}
}

func (s *HpcSubmitter) Run() error {
	pending := append([]*jobs.Job(nil), s.config.Jobs...)
	// a blocker with a seeded result does not need to be in the configuration
	s.dropCompletedBlockers(pending)
	if err := s.config.CheckJobDependencies(); err != nil {
		return err
	}
	s.logInfo(fmt.Sprintf("submitting %d jobs to the %s cluster in batches of up to %d",
		len(pending), s.manager.Name(), s.params.PerNodeBatchSize))

	queue := jobs.NewJobQueue(s.params.QueueDepth, s.params.PollInterval, s.logger)
	for len(pending) > 0 {
		newlyCompleted, err := s.aggregator.Update()
		if err != nil {
			return s.abandon(queue, err)
		}
		s.removeBlockers(pending, newlyCompleted)

		batch, taken, numBlocked := packBatch(pending, s.params.PerNodeBatchSize, s.params.TryAddBlockedJobs)
		if batch.numJobs() > 0 {
			submitter, err := s.makeAsyncSubmitter(batch)
			if err != nil {
				return s.abandon(queue, err)
			}
			if err := queue.Submit(submitter); err != nil {
				return s.abandon(queue, err)
			}
			s.emit(events.NewEvent(s.name, events.CategoryHPC, events.EventNameHpcSubmit,
				"Submitted HPC batch", map[string]interface{}{
					"batch_size":          batch.numJobs(),
					"num_blocked":         numBlocked,
					"per_node_batch_size": s.params.PerNodeBatchSize,
				}))
			pending = removeIndices(pending, taken)

			// keep packing while the cluster can take more
			if !queue.IsFull() {
				continue
			}
		}

		finishedBatches, err := queue.ProcessQueue()
		if err != nil {
			return s.abandon(queue, err)
		}

		if batch.numJobs() == 0 && len(newlyCompleted) == 0 && len(finishedBatches) == 0 &&
			queue.OutstandingCount() == 0 && queue.QueuedCount() == 0 {
			// a batch may have finished between the scan and the poll, so
			// look once more before declaring the leftovers unrunnable
			recheck, err := s.aggregator.Update()
			if err != nil {
				return s.abandon(queue, err)
			}
			if len(recheck) == 0 {
				return s.abandon(queue, common.NewJadeError(common.EJadeError.InvalidConfiguration(),
					fmt.Sprintf("jobs can never run; their dependencies form a cycle: %s",
						strings.Join(jobNames(pending), ", "))))
			}
			s.removeBlockers(pending, recheck)
			continue
		}

		time.Sleep(s.params.PollInterval)
	}

	if err := queue.Wait(); err != nil {
		return s.abandon(queue, err)
	}
	// fold in results from the last batches so callers see the full outcome
	if _, err := s.aggregator.Update(); err != nil {
		return s.abandon(queue, err)
	}
	s.logInfo("all batches finished")
	return nil
}

// dropCompletedBlockers trims blockers that already have a result, which
// happens when a restart reruns a job whose blocker succeeded last time.
func (s *HpcSubmitter) dropCompletedBlockers(pending []*jobs.Job) {
	for _, job := range pending {
		for _, blocker := range job.GetBlockingJobs().Slice() {
			if s.aggregator.HasResult(blocker) {
				job.RemoveBlockingJob(blocker)
			}
		}
	}
}

func (s *HpcSubmitter) removeBlockers(pending []*jobs.Job, completed []jobs.Result) {
	for _, result := range completed {
		for _, job := range pending {
			job.RemoveBlockingJob(result.Name)
		}
	}
}

func (s *HpcSubmitter) makeAsyncSubmitter(batch *batchJobs) (*AsyncHpcSubmitter, error) {
	batchName := fmt.Sprintf("%s_batch_%d", s.name, s.batchIndex)
	subConfigPath := strings.TrimSuffix(s.configFile, ".json") + fmt.Sprintf("_batch_%d.json", s.batchIndex)
	runScriptPath := filepath.Join(s.outputDir, fmt.Sprintf("run_batch_%d.sh", s.batchIndex))
	s.batchIndex++

	if err := s.config.WithJobs(batch.jobs).Save(subConfigPath); err != nil {
		return nil, err
	}
	if err := common.CreateScript(runScriptPath, s.runScriptText(subConfigPath)); err != nil {
		return nil, err
	}
	s.logInfo(fmt.Sprintf("created batch %s with %d jobs", batchName, batch.numJobs()))
	return NewAsyncHpcSubmitter(s.manager, runScriptPath, batchName, s.outputDir, s.sink, s.logger), nil
}

// runScriptText renders the script a node executes: load the runtime module
// where the cluster has one, then run this binary's run-jobs command against
// the batch sub-configuration.
func (s *HpcSubmitter) runScriptText(subConfigPath string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	runtimeEnv := common.GetEnvironmentVariable(common.EEnvironmentVariable.RuntimeEnvironment())
	if _, err := exec.LookPath("module"); err == nil && runtimeEnv != "" {
		b.WriteString("module load " + runtimeEnv + "\n")
	}

	exePath, err := os.Executable()
	if err != nil {
		exePath = "jade"
	}
	b.WriteString(fmt.Sprintf("%s run-jobs %s --output=%s", exePath, subConfigPath, s.outputDir))
	if s.params.NumProcesses > 0 {
		b.WriteString(fmt.Sprintf(" --num-processes=%d", s.params.NumProcesses))
	}
	if s.params.Verbose {
		b.WriteString(" --verbose")
	}
	b.WriteString("\n")
	return b.String()
}

// abandon logs what was still in flight when a fatal error ends the run.
// Batches already given to the cluster keep running; only this process stops
// watching them.
func (s *HpcSubmitter) abandon(queue *jobs.JobQueue, cause error) error {
	if names := queue.OutstandingNames(); len(names) > 0 {
		s.logWarning(fmt.Sprintf("abandoning %d in-flight submissions: %s",
			len(names), strings.Join(names, ", ")))
	}
	s.emit(events.NewUnhandledErrorEvent(s.name, cause))
	return cause
}

func (s *HpcSubmitter) emit(event events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(event); err != nil {
		s.logWarning(fmt.Sprintf("cannot record %s event: %v", event.Name, err))
	}
}

func (s *HpcSubmitter) logInfo(msg string) {
	if s.logger != nil {
		s.logger.Log(common.ELogLevel.Info(), msg)
	}
}

func (s *HpcSubmitter) logWarning(msg string) {
	if s.logger != nil {
		s.logger.Log(common.ELogLevel.Warning(), msg)
	}
}

func removeIndices(pending []*jobs.Job, taken []int) []*jobs.Job {
	if len(taken) == 0 {
		return pending
	}
	takenSet := make(map[int]struct{}, len(taken))
	for _, i := range taken {
		takenSet[i] = struct{}{}
	}
	remaining := pending[:0]
	for i, job := range pending {
		if _, ok := takenSet[i]; !ok {
			remaining = append(remaining, job)
		}
	}
	return remaining
}

func jobNames(toName []*jobs.Job) []string {
	names := make([]string, 0, len(toName))
	for _, job := range toName {
		names = append(names, job.Name)
	}
	return names
}
