package obs_test

import (
	"context"
	"testing"

	"github.com/noah-isme/taxcore/internal/obs"
)

func TestInitTracerNoneExporter(t *testing.T) {
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName: "taxcore-test",
		Exporter:    "none",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("init tracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracerRejectsUnknownExporter(t *testing.T) {
	_, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName: "taxcore-test",
		Exporter:    "jaeger",
	})
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
