// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/mpeg1ps
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "mpeg1ps"

// Metrics Pipeline 的计数器
//
// 使用独立的 prometheus.Registry，多个 Pipeline 可以各自统计。
// 方法对nil接收者安全，未开启统计时 Pipeline 直接持有nil。
//
type Metrics struct {
	registry *prometheus.Registry

	packets *prometheus.CounterVec
	errors  *prometheus.CounterVec
	frames  prometheus.Counter
	bytes   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(metricsNamespace, "", "packets_total"),
			Help: "Number of units demuxed, by type",
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(metricsNamespace, "", "errors_total"),
			Help: "Number of fatal errors, by stage",
		}, []string{"kind"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(metricsNamespace, "", "frames_total"),
			Help: "Number of decoded video frames",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(metricsNamespace, "", "bytes_total"),
			Help: "Number of input bytes accepted",
		}),
	}
	m.registry.MustRegister(m.packets, m.errors, m.frames, m.bytes)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 用于挂载到 /metrics
//
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) onPacket(typ string) {
	if m == nil {
		return
	}
	m.packets.WithLabelValues(typ).Inc()
}

func (m *Metrics) onFrame() {
	if m == nil {
		return
	}
	m.frames.Inc()
}

func (m *Metrics) onBytes(n int) {
	if m == nil || n == 0 {
		return
	}
	m.bytes.Add(float64(n))
}

func (m *Metrics) onError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}
