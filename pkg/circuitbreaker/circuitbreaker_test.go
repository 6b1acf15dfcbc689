package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("redis: connection refused")

func newTestBreaker(tripAfter uint32) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
	})
}

// TestCircuitBreaker_ClosedState 关闭状态下正常放行并统计
func TestCircuitBreaker_ClosedState(t *testing.T) {
	cb := newTestBreaker(5)

	for i := 0; i < 10; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("期望成功，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}

	counts := cb.Counts()
	if counts.TotalSuccesses != 10 {
		t.Errorf("期望成功10次，实际%d次", counts.TotalSuccesses)
	}
}

// TestCircuitBreaker_TripsOpen 连续失败达到阈值后熔断
func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := newTestBreaker(5)

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}

	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	// 打开状态下快速失败，不调用实际函数
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	if err != ErrOpenState {
		t.Errorf("期望返回ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断器打开时不应调用实际函数")
	}
}

// TestCircuitBreaker_HalfOpenRecovery 超时后半开探测，成功则恢复关闭
func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     100 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}
	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	// 等待超时转半开
	time.Sleep(150 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("半开状态探测请求期望成功，实际%v", err)
	}

	if cb.State() != StateClosed {
		t.Errorf("探测成功后期望状态为CLOSED，实际%s", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenFailure 半开探测失败立即回到打开
func TestCircuitBreaker_HalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     100 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}
	time.Sleep(150 * time.Millisecond)

	_ = cb.Execute(func() error { return errUpstream })

	if cb.State() != StateOpen {
		t.Errorf("探测失败后期望状态为OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_StateChangeCallback 状态变化回调
func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	cb := newTestBreaker(2)

	type change struct{ from, to State }
	var changes []change
	cb.SetStateChangeCallback(func(name string, from, to State) {
		if name != "test" {
			t.Errorf("期望名称test，实际%s", name)
		}
		changes = append(changes, change{from, to})
	})

	_ = cb.Execute(func() error { return errUpstream })
	_ = cb.Execute(func() error { return errUpstream })

	if len(changes) != 1 {
		t.Fatalf("期望1次状态变化，实际%d次", len(changes))
	}
	if changes[0].from != StateClosed || changes[0].to != StateOpen {
		t.Errorf("期望CLOSED→OPEN，实际%s→%s", changes[0].from, changes[0].to)
	}
}

// TestCircuitBreaker_DefaultReadyToTrip 未指定ReadyToTrip时的默认阈值
func TestCircuitBreaker_DefaultReadyToTrip(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
	})

	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}
	if cb.State() != StateClosed {
		t.Fatalf("4次失败不应熔断，实际%s", cb.State())
	}

	_ = cb.Execute(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Errorf("连续5次失败应熔断，实际%s", cb.State())
	}
}
