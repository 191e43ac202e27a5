package emu

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	frameParsed    = "parsed"
	frameMalformed = "malformed"
	frameUnknown   = "unknown"
	frameOverflow  = "overflow"

	outcomeSent       = "sent"
	outcomeAnswered   = "answered"
	outcomeNoResponse = "no_response"
	outcomeError      = "error"
)

var (
	registerOnce sync.Once

	readerFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emu",
			Subsystem: "reader",
			Name:      "frames_total",
			Help:      "Frames handled by the reader loop, by result.",
		},
		[]string{"result"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emu",
			Name:      "commands_total",
			Help:      "Commands issued to the device, by outcome.",
		},
		[]string{"command", "outcome"},
	)
	commandWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "emu",
			Name:      "command_wait_seconds",
			Help:      "Time spent waiting for a synchronous response.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// RegisterMetrics registers the session collectors with the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(readerFrames, commands, commandWait)
	})
}

func recordFrame(result string) {
	readerFrames.WithLabelValues(result).Inc()
}

func recordCommand(name, outcome string) {
	commands.WithLabelValues(name, outcome).Inc()
}

func observeWait(d time.Duration) {
	commandWait.Observe(d.Seconds())
}
