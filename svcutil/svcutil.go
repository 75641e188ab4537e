// Package svcutil runs the long-lived agent services under a suture
// supervisor.
package svcutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
)

// ServiceTimeout bounds how long a service may take to return after its
// context is cancelled.
const ServiceTimeout = 10 * time.Second

// Spec returns a supervisor spec that reports supervisor events to l.
func Spec(l *slog.Logger) suture.Spec {
	return suture.Spec{
		EventHook: func(e suture.Event) {
			l.Warn("supervisor event", "event", e.String())
		},
		Timeout:           ServiceTimeout,
		PassThroughPanics: true,
	}
}

// Run supervises services until ctx is done. A finished context is a clean
// shutdown and yields nil.
func Run(ctx context.Context, name string, l *slog.Logger, services ...suture.Service) error {
	sup := suture.New(name, Spec(l))
	for _, svc := range services {
		sup.Add(svc)
	}
	err := sup.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
