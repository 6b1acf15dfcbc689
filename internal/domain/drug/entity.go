package drug

import (
	"time"
)

// Drug 药品实体（聚合根）
// 名称+剂型+规格构成唯一三元组；CurrentStock是全院竞争最激烈的共享资源，
// 任何变更必须走"行锁→校验→修改"的路径，禁止锁外读后写
type Drug struct {
	ID                uint
	Name              string // 药品名称
	Form              string // 剂型（片剂、注射液等）
	Strength          string // 规格（如500mg）
	CurrentStock      int    // 当前库存，任何已提交事务后恒 >= 0
	LowStockThreshold int    // 低库存告警阈值
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewDrug 创建药品（工厂方法）
func NewDrug(name, form, strength string, stock, threshold int) *Drug {
	now := time.Now()
	return &Drug{
		Name:              name,
		Form:              form,
		Strength:          strength,
		CurrentStock:      stock,
		LowStockThreshold: threshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate 校验字段取值
func (d *Drug) Validate() error {
	if d.Name == "" || d.Form == "" || d.Strength == "" {
		return ErrInvalidDrug
	}
	if d.CurrentStock < 0 {
		return ErrNegativeStock
	}
	if d.LowStockThreshold < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// IsLowStock 是否低于告警阈值
func (d *Drug) IsLowStock() bool {
	return d.CurrentStock <= d.LowStockThreshold
}

// HasStock 库存是否足以消耗quantity个单位
// 仅作为锁外的预检提示；权威校验必须在持有行锁后进行
func (d *Drug) HasStock(quantity int) bool {
	return d.CurrentStock >= quantity
}
