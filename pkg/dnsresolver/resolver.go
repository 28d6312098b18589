// Package dnsresolver performs recursive DNS resolution against a
// configured upstream server list, grounded on cuemby-warren's
// pkg/dns.Resolver shape — adapted here from an authoritative in-cluster
// responder to a recursive client, since that's the role spec.md §4.3
// needs. An explicit miekg/dns client is used (rather than net.Resolver)
// so NXDOMAIN (RCODE 3) and NO_ANSWER (RCODE 0, empty answer section) are
// distinguished precisely, matching the spec's error taxonomy.
package dnsresolver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/semaphore"

	"github.com/corvidreef/reconwatch/internal/telemetry"
)

// Result is the outcome of resolving a single hostname.
type Result struct {
	Hostname string
	IPs      []string
	CNAME    string
	Err      error // one of ErrNXDOMAIN, ErrNoAnswer, or a transport error
}

var (
	// ErrNXDOMAIN means the upstream authoritatively reports the name
	// doesn't exist.
	ErrNXDOMAIN = fmt.Errorf("nxdomain")
	// ErrNoAnswer means the query succeeded but returned no records of the
	// requested type (the name exists, just not an A/AAAA record here).
	ErrNoAnswer = fmt.Errorf("no answer")
)

// Resolver resolves hostnames to A and AAAA records against a fixed
// upstream list, bounding fan-out with a semaphore the way the
// job-queue/HTTP-probe stages do (spec.md §5).
type Resolver struct {
	upstream     []string
	queryTimeout time.Duration // per A/AAAA exchange
	lifetime     time.Duration // wall-clock budget for both queries combined
	sem          *semaphore.Weighted
	logger       *slog.Logger
	rnd          *rand.Rand
}

// New creates a Resolver. upstream defaults to the public resolvers
// 8.8.8.8:53 and 1.1.1.1:53 when empty — production deployments should set
// DNS_UPSTREAM_SERVERS.
func New(upstream []string, concurrency int, logger *slog.Logger) *Resolver {
	if len(upstream) == 0 {
		upstream = []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	if concurrency <= 0 {
		concurrency = 50
	}
	return &Resolver{
		upstream:     upstream,
		queryTimeout: 2 * time.Second,
		lifetime:     3 * time.Second,
		sem:          semaphore.NewWeighted(int64(concurrency)),
		logger:       logger,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve looks up the A then AAAA records for name, returning a precise
// NXDOMAIN/NO_ANSWER distinction via Result.Err.
func (r *Resolver) Resolve(ctx context.Context, name string) Result {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return Result{Hostname: name, Err: err}
	}
	defer r.sem.Release(1)

	res := r.resolveOne(ctx, name)
	r.observe(res)
	return res
}

// ResolveAll resolves a batch of hostnames concurrently, bounded by the
// Resolver's configured concurrency limit.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) []Result {
	results := make([]Result, len(names))
	done := make(chan struct{}, len(names))

	for i, name := range names {
		i, name := i, name
		go func() {
			results[i] = r.Resolve(ctx, name)
			done <- struct{}{}
		}()
	}
	for range names {
		<-done
	}
	return results
}

func (r *Resolver) observe(res Result) {
	switch {
	case res.Err == nil:
		telemetry.DNSQueriesTotal.WithLabelValues("ok").Inc()
	case res.Err == ErrNXDOMAIN:
		telemetry.DNSQueriesTotal.WithLabelValues("nxdomain").Inc()
	case res.Err == ErrNoAnswer:
		telemetry.DNSQueriesTotal.WithLabelValues("no_answer").Inc()
	default:
		telemetry.DNSQueriesTotal.WithLabelValues("error").Inc()
	}
}

// resolveOne queries A then AAAA against a single upstream, merging
// records from both into one Result (spec.md §4.3). The combined lookup is
// bounded by r.lifetime; each individual exchange is further bounded by
// r.queryTimeout.
func (r *Resolver) resolveOne(ctx context.Context, name string) Result {
	fqdn := dns.Fqdn(name)

	lifetimeCtx, cancel := context.WithTimeout(ctx, r.lifetime)
	defer cancel()

	client := &dns.Client{Timeout: r.queryTimeout}
	server := r.pickServer()

	var ips []string
	var cname string

	for _, qtype := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qtype)
		msg.RecursionDesired = true

		queryCtx, queryCancel := context.WithTimeout(lifetimeCtx, r.queryTimeout)
		resp, _, err := client.ExchangeContext(queryCtx, msg, server)
		queryCancel()
		if err != nil {
			r.logger.Debug("dns exchange failed", "hostname", name, "server", server, "qtype", qtype, "error", err)
			return Result{Hostname: name, Err: fmt.Errorf("exchange with %s: %w", server, err)}
		}

		switch resp.Rcode {
		case dns.RcodeNameError:
			return Result{Hostname: name, Err: ErrNXDOMAIN}
		case dns.RcodeSuccess:
			// fall through to record extraction
		default:
			return Result{Hostname: name, Err: fmt.Errorf("dns rcode %d", resp.Rcode)}
		}

		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				ips = append(ips, rec.A.String())
			case *dns.AAAA:
				ips = append(ips, rec.AAAA.String())
			case *dns.CNAME:
				cname = rec.Target
			}
		}
	}

	if len(ips) == 0 {
		return Result{Hostname: name, CNAME: cname, Err: ErrNoAnswer}
	}

	return Result{Hostname: name, IPs: ips, CNAME: cname}
}

func (r *Resolver) pickServer() string {
	if len(r.upstream) == 1 {
		return r.upstream[0]
	}
	return r.upstream[r.rnd.Intn(len(r.upstream))]
}
