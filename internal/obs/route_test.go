package obs_test

import (
	"context"
	"testing"

	"github.com/noah-isme/taxcore/internal/obs"
)

func TestRouteRoundTrip(t *testing.T) {
	ctx := obs.WithRoute(context.Background(), "/v1/tax/compute")
	if got := obs.Route(ctx); got != "/v1/tax/compute" {
		t.Fatalf("expected stored route, got %q", got)
	}
}

func TestRouteMissing(t *testing.T) {
	if got := obs.Route(context.Background()); got != "" {
		t.Fatalf("expected empty route, got %q", got)
	}
	if got := obs.Route(nil); got != "" { //nolint:staticcheck
		t.Fatalf("expected empty route for nil context, got %q", got)
	}
}
