package monitor

import (
	"runtime"
	"sync/atomic"
	"time"

	"tarun-kavipurapu/lanshare/pkg/logger"
)

// Metrics holds transfer counters for this process
type Metrics struct {
	SentBytes     atomic.Int64
	SentFiles     atomic.Int64
	ReceivedBytes atomic.Int64
	ReceivedFiles atomic.Int64
	FailedSends   atomic.Int64
	DroppedConns  atomic.Int64

	ServerStart time.Time
}

// Global metrics instance
var Global = &Metrics{
	ServerStart: time.Now(),
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	SentBytes     int64
	SentFiles     int64
	ReceivedBytes int64
	ReceivedFiles int64
	FailedSends   int64
	DroppedConns  int64
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SentBytes:     m.SentBytes.Load(),
		SentFiles:     m.SentFiles.Load(),
		ReceivedBytes: m.ReceivedBytes.Load(),
		ReceivedFiles: m.ReceivedFiles.Load(),
		FailedSends:   m.FailedSends.Load(),
		DroppedConns:  m.DroppedConns.Load(),
	}
}

// RecordSent records one file delivered to one peer.
func RecordSent(bytes int64, started time.Time) {
	Global.SentBytes.Add(bytes)
	Global.SentFiles.Add(1)
	logTransfer("sent", bytes, started)
}

// RecordReceived records one file persisted from a peer.
func RecordReceived(bytes int64, started time.Time) {
	Global.ReceivedBytes.Add(bytes)
	Global.ReceivedFiles.Add(1)
	logTransfer("received", bytes, started)
}

func RecordFailedSend() {
	Global.FailedSends.Add(1)
}

func RecordDroppedConn() {
	Global.DroppedConns.Add(1)
}

func logTransfer(direction string, bytes int64, started time.Time) {
	duration := time.Since(started).Seconds()
	var speed float64
	if duration > 0 {
		speed = float64(bytes) / duration / 1024 / 1024
	}

	logger.Sugar.Debugf("[Transfer] %s Size=%dB | Duration=%.3fs | Speed=%.2fMB/s",
		direction, bytes, duration, speed)
}

// LogPeriodic logs runtime metrics at the specified interval until stop is closed
func LogPeriodic(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		s := Global.Snapshot()
		elapsed := time.Since(Global.ServerStart).Seconds()
		var throughput float64
		if elapsed > 0 {
			throughput = float64(s.SentBytes+s.ReceivedBytes) / elapsed / 1024 / 1024
		}

		logger.Sugar.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | Throughput=%.2fMB/s | Sent=%d | Received=%d | FailedSends=%d | Dropped=%d",
			runtime.NumGoroutine(),
			m.HeapAlloc/1024/1024,
			throughput,
			s.SentFiles,
			s.ReceivedFiles,
			s.FailedSends,
			s.DroppedConns,
		)
	}
}
