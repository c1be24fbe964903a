package authapi

import (
	"net"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPLimiter_BurstThenRefill(t *testing.T) {
	t.Parallel()

	l := newIPLimiter(1, 2, time.Hour)
	ip := net.ParseIP("203.0.113.1")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if ok, _ := l.allow(ip, now); !ok {
			t.Fatalf("attempt %d should pass", i)
		}
	}
	ok, retry := l.allow(ip, now)
	if ok || retry <= 0 || retry > time.Second {
		t.Fatalf("expected denial with retry in (0,1s], got ok=%v retry=%s", ok, retry)
	}

	// A denied attempt does not consume a token.
	if ok, _ := l.allow(ip, now.Add(time.Second)); !ok {
		t.Fatalf("token should have refilled")
	}

	// Other addresses have their own bucket.
	if ok, _ := l.allow(net.ParseIP("203.0.113.2"), now); !ok {
		t.Fatalf("separate ip should pass")
	}
}

func TestIPLimiter_DisabledAndNil(t *testing.T) {
	t.Parallel()

	var nilLimiter *ipLimiter
	if ok, _ := nilLimiter.allow(net.ParseIP("203.0.113.1"), time.Now()); !ok {
		t.Fatalf("nil limiter must allow")
	}

	l := newIPLimiter(0, 1, time.Hour)
	for i := 0; i < 10; i++ {
		if ok, _ := l.allow(net.ParseIP("203.0.113.1"), time.Now()); !ok {
			t.Fatalf("zero rate disables limiting")
		}
	}

	l = newIPLimiter(1, 1, time.Hour)
	if ok, _ := l.allow(nil, time.Now()); !ok {
		t.Fatalf("unknown ip must not be limited")
	}
}

func TestIPLimiter_SweepsIdleBuckets(t *testing.T) {
	t.Parallel()

	l := newIPLimiter(1, 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.allow(net.ParseIP("203.0.113.1"), now)
	l.allow(net.ParseIP("203.0.113.2"), now)
	if l.size() != 2 {
		t.Fatalf("size=%d want 2", l.size())
	}

	l.allow(net.ParseIP("203.0.113.3"), now.Add(2*time.Minute))
	if l.size() != 1 {
		t.Fatalf("idle buckets not swept: size=%d", l.size())
	}
}

func TestWriteRateLimited_RoundsRetryAfterUp(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	writeRateLimited(rr, 1500*time.Millisecond)
	if rr.Code != 429 || rr.Header().Get("Retry-After") != "2" {
		t.Fatalf("code=%d retry-after=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
}
