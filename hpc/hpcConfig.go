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

// Package hpc schedules batches of jobs onto cluster nodes. It packs ready
// jobs into batches, hands each batch to a cluster backend, and polls the
// backend until every batch has run.
package hpc

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/daniel-thom/jade/common"
)

// Config is the cluster profile, usually hpc_config.toml. Only hpc_type is
// required; the other fields pass through to the backend's submission
// command and may stay empty where the cluster has defaults.
type Config struct {
	HPC Params `toml:"hpc"`
}

type Params struct {
	HpcType    common.HpcType `toml:"hpc_type"`
	Allocation string         `toml:"allocation"`
	Partition  string         `toml:"partition"`
	QOS        string         `toml:"qos"`
	Walltime   string         `toml:"walltime"`
	Mem        string         `toml:"mem"`
}

func LoadConfig(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read hpc profile %s", path)
	}
	var c Config
	if err := toml.Unmarshal(contents, &c); err != nil {
		return nil, errors.Wrapf(err, "cannot parse hpc profile %s", path)
	}
	return &c, nil
}

// LocalConfig is the profile used with --local: run batches as child
// processes of the submitter instead of asking a cluster for nodes.
func LocalConfig() *Config {
	return &Config{HPC: Params{HpcType: common.EHpcType.Local()}}
}

func (c *Config) Save(path string) error {
	serialized, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "cannot serialize hpc profile")
	}
	return errors.Wrapf(os.WriteFile(path, serialized, common.DEFAULT_FILE_PERM),
		"cannot write hpc profile %s", path)
}
