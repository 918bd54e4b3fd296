package ratelimit

import "testing"

func TestAllowDrainsAndRefuses(t *testing.T) {
	l := New()

	if !l.Allow("ip:scan", 2, 0) {
		t.Fatalf("first token should be granted")
	}
	if !l.Allow("ip:scan", 2, 0) {
		t.Fatalf("second token should be granted")
	}
	if l.Allow("ip:scan", 2, 0) {
		t.Fatalf("bucket drained, third call must be refused")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a:backtest", 1, 0) {
		t.Fatalf("key a should start full")
	}
	if l.Allow("a:backtest", 1, 0) {
		t.Fatalf("key a is drained")
	}
	if !l.Allow("b:backtest", 1, 0) {
		t.Fatalf("key b has its own bucket")
	}
}
