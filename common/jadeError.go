// Copyright © Microsoft <wastore@microsoft.com>
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

// JadeError is to handle jade internal errors in a fine way
type JadeError struct {
	code          uint64
	msg           string
	additonalInfo string
}

// NewJadeError composes a JadeError with given code and message
func NewJadeError(base JadeError, additionalInfo string) JadeError {
	base.additonalInfo = additionalInfo
	return base
}

func (err JadeError) ErrorCode() uint64 {
	return err.code
}

func (lhs JadeError) Equals(rhs JadeError) bool {
	return lhs.code == rhs.code
}

func (err JadeError) Error() string {
	return err.msg + err.additonalInfo
}

var EJadeError JadeError

// InvalidConfiguration flags a job configuration that can never run, ex: a job blocked by a
// name that is not in the configuration, or a dependency cycle.
func (err JadeError) InvalidConfiguration() JadeError {
	return JadeError{uint64(1), "Invalid configuration. ", ""}
}

// InvalidParameter flags bad user input on the command line.
func (err JadeError) InvalidParameter() JadeError {
	return JadeError{uint64(2), "Invalid parameter. ", ""}
}

// ExecutionError flags a failure to hand work to the cluster; it is fatal to the submission.
func (err JadeError) ExecutionError() JadeError {
	return JadeError{uint64(3), "Execution error. ", ""}
}

// ClusterUnavailable flags a status query the cluster did not answer; callers treat it as transient.
func (err JadeError) ClusterUnavailable() JadeError {
	return JadeError{uint64(4), "Cluster unavailable. ", ""}
}
