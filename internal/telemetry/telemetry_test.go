package telemetry

import (
	"context"
	"os"
	"testing"
)

func TestInitInstallsNoopProviderWithoutEndpoint(t *testing.T) {
	os.Unsetenv(EndpointEnvVar)
	shutdown, err := Init(context.Background(), "vibekit-test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if Tracer("x") == nil {
		t.Error("expected a non-nil tracer")
	}
}
