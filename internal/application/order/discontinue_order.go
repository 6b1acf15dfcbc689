package order

import (
	"context"
	"fmt"

	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
)

// TxManager 事务边界（*mysql.TxManager实现）
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DiscontinueOrderUseCase 停用医嘱用例
// 状态机的另一个终态转换：active→discontinued，终态医嘱不可再履约
type DiscontinueOrderUseCase struct {
	orderRepo order.Repository
	txManager TxManager
	cache     ViewCache
}

// NewDiscontinueOrderUseCase 创建停用医嘱用例
func NewDiscontinueOrderUseCase(orderRepo order.Repository, txManager TxManager, cache ViewCache) *DiscontinueOrderUseCase {
	return &DiscontinueOrderUseCase{
		orderRepo: orderRepo,
		txManager: txManager,
		cache:     cache,
	}
}

// DiscontinueOrderResponse 停用医嘱响应DTO
type DiscontinueOrderResponse struct {
	OrderID     uint   `json:"order_id"`
	PatientName string `json:"patient_name"`
	Status      string `json:"status"`
}

// Execute 执行停用
// 与履约共用医嘱行锁：并发的履约与停用在锁上串行化，
// 后到者读到终态后以状态冲突失败
func (uc *DiscontinueOrderUseCase) Execute(ctx context.Context, orderID uint) (*DiscontinueOrderResponse, error) {
	var result *DiscontinueOrderResponse
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}

		if err := o.Discontinue(); err != nil {
			return err
		}

		if err := uc.orderRepo.UpdateStatus(txCtx, o.ID, order.StatusDiscontinued); err != nil {
			return err
		}

		result = &DiscontinueOrderResponse{
			OrderID:     o.ID,
			PatientName: o.PatientName,
			Status:      o.Status.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Invalidate(ctx, redis.ViewMARDashboard); err != nil {
		fmt.Printf("停用医嘱后缓存失效失败: %v\n", err)
	}

	return result, nil
}
