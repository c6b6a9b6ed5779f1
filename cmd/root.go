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
)

var jadeLogPathFolder string
var outputFormatRaw string
var outputVerbosityRaw string
var jadeOutputFormat common.OutputFormat
var jadeOutputVerbosity common.OutputVerbosity

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: common.JadeVersion, // will enable the user to see the version info in the standard posix way: --version
	Use:     "jade",
	Short:   rootCmdShortDescription,
	Long:    rootCmdLongDescription,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := jadeOutputFormat.Parse(outputFormatRaw)
		glcm.SetOutputFormat(jadeOutputFormat)
		if err != nil {
			return err
		}

		err = jadeOutputVerbosity.Parse(outputVerbosityRaw)
		glcm.SetOutputVerbosity(jadeOutputVerbosity)
		if err != nil {
			return err
		}
		return nil
	},
}

// hold a pointer to the global lifecycle controller so that commands could output messages and exit properly
var glcm = common.GetLifecycleMgr()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(logPathFolder string) {
	jadeLogPathFolder = logPathFolder

	if err := rootCmd.Execute(); err != nil {
		glcm.Error(err.Error())
	} else {
		// our commands all control their own life explicitly with the lifecycle manager
		// only commands that don't explicitly exit actually reach this point (e.g. help commands)
		glcm.Exit(nil, common.EExitCode.Success())
	}
}

func init() {
	// replace the word "global" to avoid confusion (e.g. it doesn't affect other processes on the node)
	rootCmd.SetUsageTemplate(strings.Replace((&cobra.Command{}).UsageTemplate(), "Global Flags", "Flags Applying to All Commands", -1))

	rootCmd.PersistentFlags().StringVar(&outputFormatRaw, "output-type", "text", "Format of the command's output. The choices include: text, json. The default value is 'text'.")
	rootCmd.PersistentFlags().StringVar(&outputVerbosityRaw, "output-level", "default", "Define the output verbosity. Available levels: essential, quiet. The default value is 'default'.")
}

// logPathFolderFor picks where a command's log files go: the location from the
// environment when one is set, otherwise the run's output directory.
func logPathFolderFor(outputDir string) string {
	if jadeLogPathFolder != "" {
		return jadeLogPathFolder
	}
	return outputDir
}
