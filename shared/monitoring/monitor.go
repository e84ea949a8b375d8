package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Monitor tracks the outcome of the most recent scan for the health
// endpoints. A failed scan marks the service degraded until the next success.
type Monitor struct {
	mu           sync.Mutex
	lastScanOK   bool
	lastScanTime time.Time
	totalScans   int
	failedScans  int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordScanSuccess(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastScanOK = true
	m.lastScanTime = time.Now()
	m.totalScans++

	log.Printf("Scan completed successfully (took %v)", duration)
}

func (m *Monitor) RecordScanFailure(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastScanOK = false
	m.lastScanTime = time.Now()
	m.totalScans++
	m.failedScans++

	log.Printf("Scan failed: %v (took %v)", err, duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastScanTime.IsZero() {
		return true // No scans yet, assume healthy
	}
	return m.lastScanOK
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastScanTime.IsZero() {
		return "No scans yet"
	}

	state := "ok"
	if !m.lastScanOK {
		state = "failed"
	}
	return fmt.Sprintf("Last scan %s at %s (%d scans, %d failed)",
		state, m.lastScanTime.Format("Jan 2 15:04"), m.totalScans, m.failedScans)
}
