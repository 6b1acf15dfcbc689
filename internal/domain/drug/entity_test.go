package drug

import (
	"testing"
)

// TestDrug_Validate 测试字段校验
func TestDrug_Validate(t *testing.T) {
	if err := NewDrug("阿莫西林", "胶囊", "500mg", 100, 10).Validate(); err != nil {
		t.Errorf("合法药品校验失败: %v", err)
	}

	cases := []struct {
		name string
		d    *Drug
		want error
	}{
		{"空名称", NewDrug("", "胶囊", "500mg", 100, 10), ErrInvalidDrug},
		{"空剂型", NewDrug("阿莫西林", "", "500mg", 100, 10), ErrInvalidDrug},
		{"空规格", NewDrug("阿莫西林", "胶囊", "", 100, 10), ErrInvalidDrug},
		{"负库存", NewDrug("阿莫西林", "胶囊", "500mg", -1, 10), ErrNegativeStock},
		{"负阈值", NewDrug("阿莫西林", "胶囊", "500mg", 100, -1), ErrInvalidThreshold},
	}

	for _, tc := range cases {
		if err := tc.d.Validate(); err != tc.want {
			t.Errorf("%s期望%v，实际%v", tc.name, tc.want, err)
		}
	}
}

// TestDrug_IsLowStock 阈值判断含相等边界
func TestDrug_IsLowStock(t *testing.T) {
	d := NewDrug("阿莫西林", "胶囊", "500mg", 11, 10)
	if d.IsLowStock() {
		t.Error("库存11阈值10不应告警")
	}

	d.CurrentStock = 10
	if !d.IsLowStock() {
		t.Error("库存等于阈值应告警")
	}

	d.CurrentStock = 0
	if !d.IsLowStock() {
		t.Error("零库存应告警")
	}
}

// TestDrug_HasStock 测试库存预检
func TestDrug_HasStock(t *testing.T) {
	d := NewDrug("阿莫西林", "胶囊", "500mg", 5, 2)

	if !d.HasStock(5) {
		t.Error("库存5应足以消耗5")
	}
	if d.HasStock(6) {
		t.Error("库存5不足以消耗6")
	}
	if !d.HasStock(0) {
		t.Error("消耗0始终可行")
	}
}
