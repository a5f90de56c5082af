package ratelimit

import (
	"testing"
	"time"
)

func TestInMemoryLimiter_AllowsBurstThenDenies(t *testing.T) {
	limiter := NewInMemoryLimiter(1, time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(1) {
			t.Fatalf("call %d within burst must be allowed", i+1)
		}
	}

	if limiter.Allow(1) {
		t.Fatal("call beyond burst must be denied")
	}
}

func TestInMemoryLimiter_ChatsAreIndependent(t *testing.T) {
	limiter := NewInMemoryLimiter(1, time.Minute, 1)

	if !limiter.Allow(1) {
		t.Fatal("first chat must be allowed")
	}
	if limiter.Allow(1) {
		t.Fatal("first chat must be throttled")
	}
	if !limiter.Allow(2) {
		t.Fatal("a throttled chat must not affect other chats")
	}
}
