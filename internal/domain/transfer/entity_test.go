package transfer

import (
	"testing"
)

// TestTransfer_Validate 测试转移参数校验
func TestTransfer_Validate(t *testing.T) {
	if err := NewTransfer(1, "中心药房", "ICU", 10, 5).Validate(); err != nil {
		t.Errorf("合法转移校验失败: %v", err)
	}

	cases := []struct {
		name string
		tr   *Transfer
		want error
	}{
		{"空来源科室", NewTransfer(1, "", "ICU", 10, 5), ErrInvalidTransfer},
		{"空目的科室", NewTransfer(1, "中心药房", "", 10, 5), ErrInvalidTransfer},
		{"来源目的相同", NewTransfer(1, "ICU", "ICU", 10, 5), ErrSameWard},
		{"数量为0", NewTransfer(1, "中心药房", "ICU", 0, 5), ErrInvalidQuantity},
		{"负数量", NewTransfer(1, "中心药房", "ICU", -3, 5), ErrInvalidQuantity},
	}

	for _, tc := range cases {
		if err := tc.tr.Validate(); err != tc.want {
			t.Errorf("%s期望%v，实际%v", tc.name, tc.want, err)
		}
	}
}

// TestNewTransfer 工厂方法赋默认转移时间
func TestNewTransfer(t *testing.T) {
	tr := NewTransfer(1, "中心药房", "ICU", 10, 5)

	if tr.DrugID != 1 || tr.ActorID != 5 || tr.Quantity != 10 {
		t.Errorf("字段赋值错误: %+v", tr)
	}
	if tr.TransferDate.IsZero() {
		t.Error("TransferDate应为创建时间")
	}
}
