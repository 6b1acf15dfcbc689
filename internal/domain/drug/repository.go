package drug

import (
	"context"

	"github.com/weihan/medstock/pkg/pagination"
)

// Repository 药品仓储接口
type Repository interface {
	// Create 创建药品（三元组重复时返回ErrDrugDuplicate）
	Create(ctx context.Context, d *Drug) error

	// FindByID 根据ID查找药品（不加锁，仅用于读路径）
	FindByID(ctx context.Context, id uint) (*Drug, error)

	// LockByID 悲观锁查找药品（SELECT ... FOR UPDATE）
	// 必须在事务内调用；锁定顺序约定：先医嘱行，后药品行
	LockByID(ctx context.Context, id uint) (*Drug, error)

	// UpdateStock 原子增减库存
	// 带stock + delta >= 0条件，条件不满足时返回ErrInsufficientStock
	UpdateStock(ctx context.Context, id uint, delta int) error

	// SetStock 直接替换库存值（调用方先LockByID并校验非负）
	SetStock(ctx context.Context, id uint, value int) error

	// ListOffset 偏移分页（兼容旧接口，深分页成本随skip线性增长）
	ListOffset(ctx context.Context, skip, limit int) ([]*Drug, int64, error)

	// ListCursor 游标分页，按limit+1取数
	// 支持的游标键：name升序、id升序
	ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*Drug, error)

	// ListLowStock 低库存药品（current_stock <= low_stock_threshold）
	ListLowStock(ctx context.Context) ([]*Drug, error)
}
