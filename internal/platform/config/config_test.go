package config

import (
	"testing"
	"time"

	kit "plaza/internal/platform/testkit"
)

func TestPrefixComposition(t *testing.T) {
	t.Setenv("CACHE_REDIS_ADDR", "localhost:6379")

	root := New()
	if got := root.Prefix("CACHE_").Prefix("REDIS_").MustString("ADDR"); got != "localhost:6379" {
		t.Fatalf("nested prefix lookup failed: %q", got)
	}
}

func TestMustStringPanicsWhenMissing(t *testing.T) {
	t.Setenv("PLAZA_TEST_ABSENT", "")
	kit.MustPanic(t, func() { New().MustString("PLAZA_TEST_ABSENT") })
}

func TestMustURL(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://research.example.org")
	u := New().MustURL("PUBLIC_URL")
	if u.Scheme != "https" || u.Host != "research.example.org" {
		t.Fatalf("bad url: %v", u)
	}

	t.Setenv("PUBLIC_URL", "not a url")
	kit.MustPanic(t, func() { New().MustURL("PUBLIC_URL") })
}

func TestRequire(t *testing.T) {
	t.Setenv("COOKIE_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ADMIN_DID", "did:plc:admin")
	kit.MustNotPanic(t, func() { New().Require("COOKIE_SECRET", "ADMIN_DID") })

	t.Setenv("ADMIN_DID", "")
	kit.MustPanic(t, func() { New().Require("COOKIE_SECRET", "ADMIN_DID") })
}

func TestMayAccessorsDefaults(t *testing.T) {
	c := New().Prefix("PLAZA_TEST_")

	if v := c.MayString("STR", "fallback"); v != "fallback" {
		t.Fatalf("MayString default: %q", v)
	}
	if v := c.MayInt("INT", 42); v != 42 {
		t.Fatalf("MayInt default: %d", v)
	}
	if v := c.MayBool("BOOL", true); !v {
		t.Fatalf("MayBool default: %v", v)
	}
	if v := c.MayDuration("DUR", 5*time.Second); v != 5*time.Second {
		t.Fatalf("MayDuration default: %v", v)
	}
}

func TestMayAccessorsInvalidFallBack(t *testing.T) {
	c := New().Prefix("PLAZA_TEST_")
	t.Setenv("PLAZA_TEST_INT", "not-a-number")
	t.Setenv("PLAZA_TEST_BOOL", "not-a-bool")
	t.Setenv("PLAZA_TEST_DUR", "soon")

	if v := c.MayInt("INT", 7); v != 7 {
		t.Fatalf("MayInt invalid should fall back: %d", v)
	}
	if v := c.MayBool("BOOL", false); v {
		t.Fatalf("MayBool invalid should fall back: %v", v)
	}
	if v := c.MayDuration("DUR", time.Minute); v != time.Minute {
		t.Fatalf("MayDuration invalid should fall back: %v", v)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("PLAZA_TEST_")
	t.Setenv("PLAZA_TEST_ORIGINS", " https://a.example , ,https://b.example ")

	got := c.MayCSV("ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("bad csv parse: %v", got)
	}

	if def := c.MayCSV("MISSING", []string{"*"}); len(def) != 1 || def[0] != "*" {
		t.Fatalf("csv default: %v", def)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("PLAZA_TEST_")

	if v := c.MayEnum("BACKEND", "memory", "memory", "redis"); v != "memory" {
		t.Fatalf("enum default: %q", v)
	}

	t.Setenv("PLAZA_TEST_BACKEND", "Redis")
	if v := c.MayEnum("BACKEND", "memory", "memory", "redis"); v != "Redis" {
		t.Fatalf("enum should be case-insensitive and keep the raw value: %q", v)
	}

	t.Setenv("PLAZA_TEST_BACKEND", "postgres")
	kit.MustPanic(t, func() { c.MayEnum("BACKEND", "memory", "memory", "redis") })
}
