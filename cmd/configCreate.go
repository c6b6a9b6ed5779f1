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

	"github.com/spf13/cobra"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/hpc"
	"github.com/daniel-thom/jade/jobs"
)

// configCmd is the parent of the configuration factories; it only prints help
var configCmd = &cobra.Command{
	Use:   "config",
	Short: configCmdShortDescription,
	Long:  configCmdLongDescription,
}

func init() {
	rootCmd.AddCommand(configCmd)

	var configFile string
	createCmd := &cobra.Command{
		Use:     "create [commandsFile]",
		Short:   configCreateCmdShortDescription,
		Long:    configCreateCmdLongDescription,
		Example: configCreateCmdExample,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("wrong number of arguments, please pass the file of commands to read")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			config, err := jobs.NewGenericCommandConfiguration(args[0])
			if err != nil {
				glcm.Error("failed to perform config create command due to error: " + err.Error())
			}
			glcm.Info(fmt.Sprintf("Created configuration with %d jobs.", len(config.Jobs)))

			if err := config.Save(configFile); err != nil {
				glcm.Error("failed to perform config create command due to error: " + err.Error())
			}
			glcm.Exit(func(format common.OutputFormat) string {
				return fmt.Sprintf("Dumped configuration to %s.", configFile)
			}, common.EExitCode.Success())
		},
	}
	configCmd.AddCommand(createCmd)
	createCmd.PersistentFlags().StringVarP(&configFile, "config-file", "c", "config.json", "Where to write the configuration.")

	hpcParams := hpc.Params{}
	var hpcTypeRaw string
	var hpcConfigFile string
	hpcCmd := &cobra.Command{
		Use:     "hpc",
		Short:   configHpcCmdShortDescription,
		Long:    configHpcCmdLongDescription,
		Example: configHpcCmdExample,
		Run: func(cmd *cobra.Command, args []string) {
			if err := hpcParams.HpcType.Parse(hpcTypeRaw); err != nil {
				glcm.Error("failed to parse user input due to error: " + err.Error())
			}

			config := &hpc.Config{HPC: hpcParams}
			if err := config.Save(hpcConfigFile); err != nil {
				glcm.Error("failed to perform config hpc command due to error: " + err.Error())
			}
			glcm.Exit(func(format common.OutputFormat) string {
				return fmt.Sprintf("Dumped HPC configuration to %s.", hpcConfigFile)
			}, common.EExitCode.Success())
		},
	}
	configCmd.AddCommand(hpcCmd)
	hpcCmd.PersistentFlags().StringVarP(&hpcConfigFile, "config-file", "c", "hpc_config.toml", "Where to write the HPC profile.")
	hpcCmd.PersistentFlags().StringVar(&hpcTypeRaw, "hpc-type", "slurm", "Scheduler type. The choices include: slurm, local, fake.")
	hpcCmd.PersistentFlags().StringVar(&hpcParams.Allocation, "account", "", "Account or allocation the submissions charge against.")
	hpcCmd.PersistentFlags().StringVar(&hpcParams.Partition, "partition", "", "Partition to submit to; the scheduler picks one when empty.")
	hpcCmd.PersistentFlags().StringVar(&hpcParams.QOS, "qos", "", "Quality of service.")
	hpcCmd.PersistentFlags().StringVar(&hpcParams.Walltime, "walltime", "4:00:00", "Maximum wall time per allocation.")
	hpcCmd.PersistentFlags().StringVar(&hpcParams.Mem, "mem", "", "Memory request per node, ex: 80GB.")
}
