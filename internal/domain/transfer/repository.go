package transfer

import (
	"context"

	"github.com/weihan/medstock/pkg/pagination"
)

// Repository 库存转移仓储接口
type Repository interface {
	// Create 落审计行（必须与库存扣减在同一事务内）
	Create(ctx context.Context, t *Transfer) error

	// FindByID 根据ID查找转移记录
	FindByID(ctx context.Context, id uint) (*Transfer, error)

	// ListOffset 偏移分页（兼容旧接口）
	ListOffset(ctx context.Context, skip, limit int) ([]*Transfer, int64, error)

	// ListCursor 游标分页，按limit+1取数，JOIN装配药品与操作人
	// 支持的游标键：transfer_date降序、id升序
	ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*Transfer, error)

	// ListByDrug 查询某药品的全部转移记录
	ListByDrug(ctx context.Context, drugID uint) ([]*Transfer, error)
}
