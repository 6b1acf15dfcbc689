package order

import (
	"testing"
)

// TestOrder_Complete 测试正常完成
func TestOrder_Complete(t *testing.T) {
	o := NewOrder("张伟", 1, 10, 2)

	if o.Status != StatusActive {
		t.Fatalf("新医嘱期望状态active，实际%s", o.Status)
	}

	if err := o.Complete(); err != nil {
		t.Fatalf("active医嘱完成失败: %v", err)
	}
	if o.Status != StatusCompleted {
		t.Errorf("期望状态completed，实际%s", o.Status)
	}
}

// TestOrder_CompleteTwice 重复完成返回已完成错误
func TestOrder_CompleteTwice(t *testing.T) {
	o := NewOrder("张伟", 1, 10, 2)

	if err := o.Complete(); err != nil {
		t.Fatalf("第一次完成失败: %v", err)
	}

	err := o.Complete()
	if err != ErrOrderAlreadyCompleted {
		t.Errorf("期望ErrOrderAlreadyCompleted，实际%v", err)
	}
	if o.Status != StatusCompleted {
		t.Errorf("失败的转换不应改变状态，实际%s", o.Status)
	}
}

// TestOrder_CompleteDiscontinued 已停用医嘱不可完成
func TestOrder_CompleteDiscontinued(t *testing.T) {
	o := NewOrder("张伟", 1, 10, 2)

	if err := o.Discontinue(); err != nil {
		t.Fatalf("停用失败: %v", err)
	}

	err := o.Complete()
	if err != ErrInvalidStatusTransition {
		t.Errorf("期望ErrInvalidStatusTransition，实际%v", err)
	}
}

// TestOrder_DiscontinueCompleted 已完成医嘱不可停用
func TestOrder_DiscontinueCompleted(t *testing.T) {
	o := NewOrder("张伟", 1, 10, 2)

	if err := o.Complete(); err != nil {
		t.Fatalf("完成失败: %v", err)
	}

	err := o.Discontinue()
	if err != ErrOrderAlreadyCompleted {
		t.Errorf("期望ErrOrderAlreadyCompleted，实际%v", err)
	}
}

// TestOrder_CanTransitionTo 测试状态转换表
func TestOrder_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusDiscontinued, true},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusDiscontinued, false},
		{StatusDiscontinued, StatusActive, false},
		{StatusDiscontinued, StatusCompleted, false},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.from}
		if got := o.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s→%s期望%v，实际%v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

// TestOrder_Validate 测试字段校验
func TestOrder_Validate(t *testing.T) {
	if err := NewOrder("张伟", 1, 10, 2).Validate(); err != nil {
		t.Errorf("合法医嘱校验失败: %v", err)
	}

	if err := NewOrder("", 1, 10, 2).Validate(); err != ErrInvalidOrder {
		t.Errorf("空患者姓名期望ErrInvalidOrder，实际%v", err)
	}

	if err := NewOrder("张伟", 1, 10, 0).Validate(); err != ErrInvalidDosage {
		t.Errorf("剂量0期望ErrInvalidDosage，实际%v", err)
	}

	if err := NewOrder("张伟", 1, 10, -1).Validate(); err != ErrInvalidDosage {
		t.Errorf("负剂量期望ErrInvalidDosage，实际%v", err)
	}
}

// TestOrder_PendingAdministrations 测试待给药次数计算
func TestOrder_PendingAdministrations(t *testing.T) {
	o := NewOrder("张伟", 1, 10, 3)

	if got := o.PendingAdministrations(); got != 3 {
		t.Errorf("无给药记录时期望3，实际%d", got)
	}

	o.Administrations = []Administration{{ID: 1}, {ID: 2}}
	if got := o.PendingAdministrations(); got != 1 {
		t.Errorf("2条给药记录后期望1，实际%d", got)
	}

	o.Administrations = append(o.Administrations, Administration{ID: 3}, Administration{ID: 4})
	if got := o.PendingAdministrations(); got != 0 {
		t.Errorf("给药记录超出剂量时不为负，期望0，实际%d", got)
	}
}

// TestStatus_String 测试状态可读名
func TestStatus_String(t *testing.T) {
	cases := map[Status]string{
		StatusActive:       "active",
		StatusCompleted:    "completed",
		StatusDiscontinued: "discontinued",
		Status(99):         "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Status(%d)期望%s，实际%s", s, want, got)
		}
	}
}
