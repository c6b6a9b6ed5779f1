package cmd

import "github.com/daniel-thom/jade/common"

// ===================================== ROOT COMMAND ===================================== //
const rootCmdShortDescription = "Jade submits batches of interdependent jobs to an HPC cluster."

const rootCmdLongDescription = "Jade " + common.JadeVersion +
	`
  The general format of the commands is: jade [command] [arguments] --[flag-name]=[flag-value].

  A submission starts from a configuration file that lists every job, its command, and the
  jobs that must finish before it may start. Jade packs ready jobs into batches, submits one
  allocation per batch, and keeps going until every job has a result.
`

const exampleSnippetStart = "```jade"
const exampleSnippetEnd = "```"

// ===================================== SUBMIT-JOBS COMMAND ===================================== //
const submitJobsCmdShortDescription = "Submits the jobs in a configuration file to the HPC"

const submitJobsCmdLongDescription = `
Reads the configuration file, packs jobs whose blocking jobs have finished into batches of up
to --per-node-batch-size, and submits one compute-node allocation per batch. At most
--max-nodes allocations are outstanding at any time; the rest wait in a local queue. The
command polls the cluster every --poll-interval seconds, folds completed results back in, and
submits newly-unblocked jobs until everything has run.

The HPC profile is read from --hpc-config (TOML). Pass --local to bypass the cluster and run
every batch as a local process, which is useful on a laptop or inside a compute-node
interactive session.

Each job's result lands in [output]/results/[name].json and its stdout/stderr in
[output]/job-output/[name].log. Structured events are appended to
[output]/submit_jobs_events.log; inspect them later with jade show-events.
`

const submitJobsCmdExample = `Submit all jobs in config.json with the profile in hpc_config.toml:
` + exampleSnippetStart + `
jade submit-jobs config.json
` + exampleSnippetEnd + `

Run everything locally with at most 4 simultaneous processes:

` + exampleSnippetStart + `
jade submit-jobs config.json --local -q 4
` + exampleSnippetEnd + `

Keep blocked jobs out of batches, so each allocation only ever holds ready jobs:

` + exampleSnippetStart + `
jade submit-jobs config.json --try-add-blocked-jobs=false
` + exampleSnippetEnd + `

Rerun only the jobs that failed in a previous submission, reusing its output directory:

` + exampleSnippetStart + `
jade submit-jobs config.json --output=output --restart-failed
` + exampleSnippetEnd + `
`

// ===================================== RUN-JOBS COMMAND ===================================== //
const runJobsCmdShortDescription = "Runs the jobs in a configuration file as local processes"

const runJobsCmdLongDescription = `
Executes every job in the configuration file on this machine, honoring the dependency
declarations, with at most --num-processes jobs running at once. This is the command that
generated batch scripts invoke on a compute node; it can also be used directly to run a
configuration without any cluster.

A result file is written for every job, whether it succeeds or fails. The command's exit code
reflects only whether the runner itself worked; use jade show-results to see per-job outcomes.
`

const runJobsCmdExample = `Run the jobs of a batch on the current node:
` + exampleSnippetStart + `
jade run-jobs config_batch_3.json --output=output
` + exampleSnippetEnd + `
`

// ===================================== CONFIG COMMAND ===================================== //
const configCmdShortDescription = "Creates and inspects Jade configuration files"

const configCmdLongDescription = configCmdShortDescription + `

Subcommands build the job configuration consumed by submit-jobs, or write a starter HPC
profile for your cluster.`

const configCreateCmdShortDescription = "Creates a job configuration from a file of commands"

const configCreateCmdLongDescription = `
Reads a text file with one shell command per line (blank lines and lines starting with # are
skipped) and writes a configuration file where each command becomes a job named by its line
number. Edit the file afterwards to add blocked-by declarations if jobs depend on each other.
`

const configCreateCmdExample = `Turn a list of commands into config.json:
` + exampleSnippetStart + `
jade config create commands.txt
` + exampleSnippetEnd + `
`

const configHpcCmdShortDescription = "Writes an HPC profile for submit-jobs"

const configHpcCmdLongDescription = `
Writes a TOML file describing how to reach your cluster: the scheduler type plus the
account/partition/QOS/walltime/memory values stamped onto every allocation request. Pass the
values as flags, or edit the file afterwards.
`

const configHpcCmdExample = `Write hpc_config.toml for a Slurm cluster:
` + exampleSnippetStart + `
jade config hpc --account=my-allocation --walltime=4:00:00
` + exampleSnippetEnd + `
`

// ===================================== SHOW-EVENTS COMMAND ===================================== //
const showEventsCmdShortDescription = "Shows the structured events recorded during a submission"

const showEventsCmdLongDescription = `
Consolidates the event logs in the output directory, caches them in events.json, and prints
the events as tables, one table per event name. Pass event names as arguments to restrict the
output, or --names-only to list which event names occurred.

Useful names include hpc_submit (one per batch), hpc_job_state_change (queued/running
transitions), and the *_stats resource-utilization samples recorded on each compute node.
`

const showEventsCmdExample = `Show every batch submission of the run in ./output:
` + exampleSnippetStart + `
jade show-events hpc_submit
` + exampleSnippetEnd + `
`

// ===================================== SHOW-RESULTS COMMAND ===================================== //
const showResultsCmdShortDescription = "Shows the result of every job in a submission"

const showResultsCmdLongDescription = `
Reads the result files in [output]/results and prints one row per job: its return code,
execution time, and completion time. Pass --failed to list only the jobs that returned a
non-zero code.
`

// ===================================== ENV COMMAND ===================================== //
const envCmdShortDescription = "Shows the environment variables that can configure Jade's behavior"

const envCmdLongDescription = envCmdShortDescription + "."
