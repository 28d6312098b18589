package scanadapter

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Prober is implemented by pluggable port-scanning backends. PortScanAdapter
// ships a bounded TCP-connect implementation; no raw sockets or SYN scans.
type Prober interface {
	Probe(ctx context.Context, host string, port int) bool
}

// TCPConnectProber dials each host:port with a short timeout.
type TCPConnectProber struct {
	Timeout time.Duration
}

func (p TCPConnectProber) Probe(ctx context.Context, host string, port int) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// PortScanAdapter is the port-scan stage stand-in. Concurrency is bounded
// the same way the DNS resolver and HTTP probe stages are (spec.md §5).
type PortScanAdapter struct {
	Prober      Prober
	Concurrency int
}

func NewPortScanAdapter(prober Prober, concurrency int) *PortScanAdapter {
	if concurrency <= 0 {
		concurrency = 20
	}
	return &PortScanAdapter{Prober: prober, Concurrency: concurrency}
}

func (a *PortScanAdapter) Name() string { return "portscan" }

func (a *PortScanAdapter) Run(ctx context.Context, _ Target, config map[string]any, stream StreamFunc) (ScanResult, error) {
	start := time.Now()

	hosts, _ := config["hosts"].([]string)
	ports, _ := config["ports"].([]int)
	if len(ports) == 0 {
		ports = []int{21, 22, 25, 80, 443, 3389, 8080, 8443}
	}

	sem := semaphore.NewWeighted(int64(a.Concurrency))
	var mu sync.Mutex
	var services []ServiceArtifact
	var rawLines []string

	done := make(chan struct{}, len(hosts)*len(ports))
	for _, host := range hosts {
		for _, port := range ports {
			host, port := host, port
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			go func() {
				defer sem.Release(1)
				if a.Prober.Probe(ctx, host, port) {
					mu.Lock()
					services = append(services, ServiceArtifact{HostType: "ip", HostNormalized: host, Port: port, Proto: "tcp"})
					line := fmt.Sprintf("%s:%d open", host, port)
					rawLines = append(rawLines, line)
					if stream != nil {
						stream(line)
					}
					mu.Unlock()
				}
				done <- struct{}{}
			}()
		}
	}
	for range hosts {
		for range ports {
			select {
			case <-done:
			case <-ctx.Done():
				return ScanResult{Scanner: a.Name(), Status: StatusFailed, Err: ctx.Err()}, ctx.Err()
			}
		}
	}

	return ScanResult{
		Scanner:     a.Name(),
		Status:      StatusCompleted,
		StartedAt:   start,
		CompletedAt: time.Now(),
		RawOutput:   strings.Join(rawLines, "\n"),
		Services:    services,
	}, nil
}
