package scanadapter

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/corvidreef/reconwatch/pkg/normalize"
	"golang.org/x/sync/semaphore"
)

// httpProbeResult is probeOne's internal per-URL outcome; it never crosses
// the Adapter boundary, which speaks only in Asset/Edge artifacts.
type httpProbeResult struct {
	URL        string
	StatusCode int
	Title      string
	Reachable  bool
}

// HTTPProbeAdapter issues bounded-concurrency HTTP GETs, following redirects
// with TLS verification disabled — matching the verifier's semantics for
// reaching hosts whose certificates may not chain to a public root
// (spec.md §4.7).
type HTTPProbeAdapter struct {
	Client      *http.Client
	Concurrency int
}

func NewHTTPProbeAdapter(concurrency int) *HTTPProbeAdapter {
	if concurrency <= 0 {
		concurrency = 20
	}
	return &HTTPProbeAdapter{
		Client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		Concurrency: concurrency,
	}
}

func (a *HTTPProbeAdapter) Name() string { return "httpprobe" }

// Run probes each url in config["urls"] ([]string), pairing it with the IP
// host it was built from at the same index in config["hosts"] ([]string) so
// a reachable URL can be reported as an Asset plus a "serves" Edge from its
// originating IP (spec.md §4.6 stage 4).
func (a *HTTPProbeAdapter) Run(ctx context.Context, _ Target, config map[string]any, stream StreamFunc) (ScanResult, error) {
	start := time.Now()

	urls, _ := config["urls"].([]string)
	hosts, _ := config["hosts"].([]string)
	urlHost := make(map[string]string, len(urls))
	for i, u := range urls {
		if i < len(hosts) {
			urlHost[u] = hosts[i]
		}
	}
	sem := semaphore.NewWeighted(int64(a.Concurrency))

	var mu sync.Mutex
	var probes []httpProbeResult
	var rawLines []string
	var wg sync.WaitGroup

	for _, u := range urls {
		u := u
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			result := a.probeOne(ctx, u)

			mu.Lock()
			probes = append(probes, result)
			line := fmt.Sprintf("%s -> %d %q", u, result.StatusCode, result.Title)
			rawLines = append(rawLines, line)
			if stream != nil {
				stream(line)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	var assets []AssetArtifact
	var edges []EdgeArtifact
	for _, p := range probes {
		if !p.Reachable {
			continue
		}
		norm, err := normalize.URL(p.URL)
		if err != nil {
			continue
		}
		assets = append(assets, AssetArtifact{Type: "url", Value: p.URL, Normalized: norm})
		if host := urlHost[p.URL]; host != "" {
			edges = append(edges, EdgeArtifact{
				FromType: "ip", FromNormalized: host,
				ToType: "url", ToNormalized: norm,
				RelType: "serves",
			})
		}
	}

	return ScanResult{
		Scanner:     a.Name(),
		Status:      StatusCompleted,
		StartedAt:   start,
		CompletedAt: time.Now(),
		RawOutput:   strings.Join(rawLines, "\n"),
		Assets:      assets,
		Edges:       edges,
	}, nil
}

func (a *HTTPProbeAdapter) probeOne(ctx context.Context, rawURL string) httpProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return httpProbeResult{URL: rawURL}
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return httpProbeResult{URL: rawURL}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return httpProbeResult{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Title:      extractTitle(string(body)),
		Reachable:  true,
	}
}

func extractTitle(body string) string {
	lower := strings.ToLower(body)
	start := strings.Index(lower, "<title>")
	if start < 0 {
		return ""
	}
	start += len("<title>")
	end := strings.Index(lower[start:], "</title>")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(body[start : start+end])
}
