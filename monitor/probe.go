package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

var _ Source = &probeSource{}

// healthChecker is the part of the gRPC health client used by the probe
type healthChecker interface {
	Check(ctx context.Context, in *healthpb.HealthCheckRequest, opts ...grpc.CallOption) (*healthpb.HealthCheckResponse, error)
}

// NotServing is returned when the health service answers with any status other than SERVING
type NotServing struct {
	Msg    string
	Status healthpb.HealthCheckResponse_ServingStatus
}

func (e NotServing) Error() string {
	return e.Msg
}

// probeSource polls a gRPC health service.  Each SERVING answer is a heartbeat.
type probeSource struct {
	target   string
	service  string
	interval time.Duration
	dial     func(ctx context.Context) (healthChecker, io.Closer, error)
}

func newProbeSource(c Config) *probeSource {
	var creds grpc.DialOption
	switch c.useTLS {
	case true:
		creds = grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{}))
	default:
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	return &probeSource{
		target:   c.Probe,
		service:  c.ProbeService,
		interval: c.ProbeInterval,
		dial: func(ctx context.Context) (healthChecker, io.Closer, error) {
			conn, err := grpc.NewClient(c.Probe, creds)
			if err != nil {
				return nil, nil, err
			}
			return healthpb.NewHealthClient(conn), conn, nil
		},
	}
}

func (p *probeSource) Name() string {
	return "probe"
}

// Run probes once immediately and then every interval until ctx is done
func (p *probeSource) Run(ctx context.Context, sink Sink) error {
	client, closer, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("could not connect to health service %s: %w", p.target, err)
	}
	defer closer.Close()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		switch err := p.probe(ctx, client); {
		case err == nil:
			sink.Heartbeat()
		case ctx.Err() == nil:
			sink.Error(err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// probe performs one health check.  Transient failures are retried with exponential backoff
// for at most one probe interval.
func (p *probeSource) probe(ctx context.Context, client healthChecker) error {
	check := func() error {
		cctx, cancel := context.WithTimeout(ctx, p.interval)
		defer cancel()

		resp, err := client.Check(cctx, &healthpb.HealthCheckRequest{Service: p.service})
		if err != nil {
			if transient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return backoff.Permanent(NotServing{
				Msg:    fmt.Sprintf("health service %s reports %s", p.target, resp.GetStatus()),
				Status: resp.GetStatus(),
			})
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval / 10
	b.MaxInterval = p.interval / 2
	b.MaxElapsedTime = p.interval

	return backoff.Retry(check, backoff.WithContext(b, ctx))
}

func transient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}
