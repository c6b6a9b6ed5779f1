// Copyright © 2023 Microsoft <wastore@microsoft.com>
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

package jobs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/daniel-thom/jade/common"
	"github.com/daniel-thom/jade/events"
)

// ResourceMonitor samples compute-node utilization while jobs run and emits
// one event per subsystem per interval. Disk and network figures are deltas
// against the previous sample, so those events start with the second one.
type ResourceMonitor struct {
	source   string
	sink     events.IEventSink
	logger   common.ILogger
	interval time.Duration

	havePrevious  bool
	lastSample    time.Time
	lastDiskStats [4]uint64
	lastNetStats  [4]uint64
}

func NewResourceMonitor(sink events.IEventSink, logger common.ILogger, interval time.Duration) *ResourceMonitor {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &ResourceMonitor{source: hostname, sink: sink, logger: logger, interval: interval}
}

func (m *ResourceMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, event := range m.Collect() {
				if err := m.sink.Emit(event); err != nil && m.logger != nil {
					m.logger.Log(common.ELogLevel.Warning(), fmt.Sprintf("cannot record %s event: %v", event.Name, err))
				}
			}
		}
	}
}

// Collect gathers one sample and returns the resulting events.
func (m *ResourceMonitor) Collect() []events.Event {
	var collected []events.Event

	if percents, err := cpu.Percent(0, false); err != nil {
		m.warn("cpu", err)
	} else if len(percents) > 0 {
		collected = append(collected, m.newStatsEvent(events.EventNameCpuStats,
			map[string]interface{}{"cpu_percent": percents[0]}))
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		m.warn("memory", err)
	} else {
		collected = append(collected, m.newStatsEvent(events.EventNameMemStats,
			map[string]interface{}{
				"percent":   vm.UsedPercent,
				"total":     vm.Total,
				"available": vm.Available,
				"used":      vm.Used,
				"free":      vm.Free,
			}))
	}

	now := time.Now()
	diskStats, diskOk := m.readDiskStats()
	netStats, netOk := m.readNetStats()
	if m.havePrevious {
		elapsed := now.Sub(m.lastSample).Seconds()
		if diskOk {
			collected = append(collected, m.newStatsEvent(events.EventNameDiskStats,
				map[string]interface{}{
					"read_bytes":      diskStats[0] - m.lastDiskStats[0],
					"write_bytes":     diskStats[1] - m.lastDiskStats[1],
					"read_count":      diskStats[2] - m.lastDiskStats[2],
					"write_count":     diskStats[3] - m.lastDiskStats[3],
					"elapsed_seconds": elapsed,
				}))
		}
		if netOk {
			collected = append(collected, m.newStatsEvent(events.EventNameNetStats,
				map[string]interface{}{
					"bytes_sent":      netStats[0] - m.lastNetStats[0],
					"bytes_recv":      netStats[1] - m.lastNetStats[1],
					"packets_sent":    netStats[2] - m.lastNetStats[2],
					"packets_recv":    netStats[3] - m.lastNetStats[3],
					"elapsed_seconds": elapsed,
				}))
		}
	}
	if diskOk {
		m.lastDiskStats = diskStats
	}
	if netOk {
		m.lastNetStats = netStats
	}
	m.lastSample = now
	m.havePrevious = true
	return collected
}

func (m *ResourceMonitor) readDiskStats() ([4]uint64, bool) {
	counters, err := disk.IOCounters()
	if err != nil {
		m.warn("disk", err)
		return [4]uint64{}, false
	}
	var stats [4]uint64
	for _, counter := range counters {
		stats[0] += counter.ReadBytes
		stats[1] += counter.WriteBytes
		stats[2] += counter.ReadCount
		stats[3] += counter.WriteCount
	}
	return stats, true
}

func (m *ResourceMonitor) readNetStats() ([4]uint64, bool) {
	counters, err := net.IOCounters(false)
	if err != nil {
		m.warn("network", err)
		return [4]uint64{}, false
	}
	if len(counters) == 0 {
		return [4]uint64{}, false
	}
	return [4]uint64{
		counters[0].BytesSent,
		counters[0].BytesRecv,
		counters[0].PacketsSent,
		counters[0].PacketsRecv,
	}, true
}

func (m *ResourceMonitor) newStatsEvent(name string, data map[string]interface{}) events.Event {
	return events.NewEvent(m.source, events.CategoryResourceUtil, name, "", data)
}

func (m *ResourceMonitor) warn(subsystem string, err error) {
	if m.logger != nil && m.logger.ShouldLog(common.ELogLevel.Debug()) {
		m.logger.Log(common.ELogLevel.Debug(), fmt.Sprintf("cannot sample %s stats: %v", subsystem, err))
	}
}
