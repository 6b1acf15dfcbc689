package order

import (
	"context"

	"github.com/weihan/medstock/pkg/pagination"
)

// Repository 医嘱仓储接口
//
// 关联装配约定（避免N+1与笛卡尔积膨胀，必须保持）：
// 多对一关系（医嘱→药品、医嘱→医生）在主查询中JOIN一次取回；
// 一对多关系（医嘱→给药记录、给药记录→护士）用主键集合的IN批量查询，
// 每层关系一条查询，与行数无关，绝不逐行查询，也绝不对一对多做JOIN
type Repository interface {
	// Create 创建医嘱
	Create(ctx context.Context, o *Order) error

	// FindByID 根据ID查找医嘱（含给药记录，不加锁）
	FindByID(ctx context.Context, id uint) (*Order, error)

	// LockByID 悲观锁查找医嘱（SELECT ... FOR UPDATE）
	// 必须在事务内调用；这是履约路径锁序的第一把锁
	LockByID(ctx context.Context, id uint) (*Order, error)

	// UpdateStatus 更新医嘱状态（调用方已在锁内完成状态机校验）
	UpdateStatus(ctx context.Context, id uint, status Status) error

	// CreateAdministration 追加给药记录
	// AdministrationTime由存储在插入时赋值
	CreateAdministration(ctx context.Context, a *Administration) error

	// ListOffset 偏移分页（兼容旧接口）
	ListOffset(ctx context.Context, skip, limit int) ([]*Order, int64, error)

	// ListCursor 游标分页，按limit+1取数，完整预加载关联
	// 支持的游标键：created_at降序、id升序
	ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*Order, error)

	// ListByDoctor 查询某医生开立的全部医嘱（完整预加载关联）
	ListByDoctor(ctx context.Context, doctorID uint) ([]*Order, error)

	// ListActive 查询全部执行中的医嘱（完整预加载关联）
	// MAR看板的单次快照查询
	ListActive(ctx context.Context) ([]*Order, error)
}
