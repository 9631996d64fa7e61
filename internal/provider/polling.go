package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/compute/v1"

	"github.com/aharelick/director-google-plugin/internal/conf"
)

// initialPollingInterval is the first delay between two polls, capped by the
// configured maximum interval.
var initialPollingInterval = 500 * time.Millisecond

var errOperationPending = errors.New("operation pending")

// OperationGetter fetches the current state of a compute operation.
type OperationGetter func(ctx context.Context) (*compute.Operation, error)

// OperationError reports a compute operation that finished with errors.
type OperationError struct {
	Name   string
	Errors []string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %s", e.Name, strings.Join(e.Errors, "; "))
}

// PollingBackOff returns the backoff used while waiting for compute
// operations. The delay between polls grows up to
// google.compute.maxPollingIntervalSeconds and polling gives up after
// google.compute.pollingTimeoutSeconds.
func (p *GoogleCloudProvider) PollingBackOff(ctx context.Context) (backoff.BackOff, error) {
	timeout, err := p.config.GetDuration(conf.ComputePollingTimeoutKey, time.Second)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %v", conf.ComputePollingTimeoutKey, timeout)
	}
	maxInterval, err := p.config.GetDuration(conf.ComputeMaxPollingIntervalKey, time.Second)
	if err != nil {
		return nil, err
	}
	if maxInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %v", conf.ComputeMaxPollingIntervalKey, maxInterval)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(initialPollingInterval, maxInterval)
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = timeout
	b.Reset()

	return backoff.WithContext(b, ctx), nil
}

// WaitForOperation polls get until the operation is DONE. It fails when the
// operation finished with errors, when get fails, or when the polling
// timeout elapses.
func (p *GoogleCloudProvider) WaitForOperation(ctx context.Context, get OperationGetter) (*compute.Operation, error) {
	b, err := p.PollingBackOff(ctx)
	if err != nil {
		return nil, err
	}

	var op *compute.Operation
	poll := func() error {
		var err error
		op, err = get(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if op == nil {
			return backoff.Permanent(errors.New("empty operation"))
		}
		if op.Status != "DONE" {
			return errOperationPending
		}
		if op.Error != nil && len(op.Error.Errors) > 0 {
			opErr := &OperationError{Name: op.Name}
			for _, e := range op.Error.Errors {
				opErr.Errors = append(opErr.Errors, e.Code+": "+e.Message)
			}
			return backoff.Permanent(opErr)
		}
		return nil
	}
	notify := func(_ error, d time.Duration) {
		slog.Debug("waiting for operation", "project", p.ProjectID(), "operation", op.Name, "status", op.Status, "next", d)
	}

	if err := backoff.RetryNotify(poll, b, notify); err != nil {
		if errors.Is(err, errOperationPending) {
			return op, fmt.Errorf("timed out waiting for operation %s", op.Name)
		}
		return op, err
	}
	return op, nil
}

// ZoneOperation returns an OperationGetter for a zonal operation of the
// provider project.
func (p *GoogleCloudProvider) ZoneOperation(svc *compute.Service, zone, name string) OperationGetter {
	return func(ctx context.Context) (*compute.Operation, error) {
		return svc.ZoneOperations.Get(p.ProjectID(), zone, name).Context(ctx).Do()
	}
}
