package modkit

import (
	"net/http"
	"testing"

	"plaza/internal/modkit/httpkit"
)

func TestBuildDefaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" {
		t.Fatalf("zero options should yield zero name/prefix: %+v", b)
	}
	if b.Subrouter == nil || b.Register == nil {
		t.Fatalf("hooks must default to no-ops")
	}
	// defaults must be callable without a router
	b.Register(nil)
	if got := b.Subrouter(nil); got != nil {
		t.Fatalf("default subrouter should return its input")
	}
}

func TestBuildAppliesOptions(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return next }
	registered := false

	b := Build(
		WithName("feed"),
		WithPrefix("/feed"),
		WithMiddlewares(mw),
		WithSwagger(true),
		WithRegister(func(httpkit.Router) { registered = true }),
	)

	if b.Name != "feed" {
		t.Fatalf("name = %q", b.Name)
	}
	if b.Prefix != "/feed" {
		t.Fatalf("prefix = %q", b.Prefix)
	}
	if len(b.Mw) != 1 {
		t.Fatalf("want 1 middleware, got %d", len(b.Mw))
	}
	if !b.SwaggerOn {
		t.Fatalf("swagger should be on")
	}
	b.Register(nil)
	if !registered {
		t.Fatalf("register hook not applied")
	}
}

type curatorPort interface{ IsAdmin(string) bool }

type fakeCurator struct{}

func (fakeCurator) IsAdmin(string) bool { return false }

func TestWithPortsCarriesConcreteType(t *testing.T) {
	b := Build(WithPorts[curatorPort](fakeCurator{}))
	if _, ok := b.Ports.(curatorPort); !ok {
		t.Fatalf("ports should hold the injected interface, got %T", b.Ports)
	}
}
