package drug

import (
	"context"
	"fmt"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	"github.com/weihan/medstock/pkg/metrics"
)

// UpdateStockUseCase 直接调整库存用例（盘点/入库）
// 与履约共用锁纪律：任何写stock的路径都必须先持药品行锁
type UpdateStockUseCase struct {
	drugRepo  drug.Repository
	txManager TxManager
	cache     ViewCache
}

// NewUpdateStockUseCase 创建调整库存用例
func NewUpdateStockUseCase(drugRepo drug.Repository, txManager TxManager, cache ViewCache) *UpdateStockUseCase {
	return &UpdateStockUseCase{
		drugRepo:  drugRepo,
		txManager: txManager,
		cache:     cache,
	}
}

// UpdateStockRequest 调整库存请求DTO
type UpdateStockRequest struct {
	DrugID uint // 药品ID
	Stock  int  // 替换后的库存值(非负)
}

// Execute 执行库存调整
// 负数入参在碰行之前就拒绝；替换值写入在行锁内完成
func (uc *UpdateStockUseCase) Execute(ctx context.Context, req UpdateStockRequest) (*DrugItem, error) {
	if req.Stock < 0 {
		return nil, drug.ErrNegativeStock
	}

	var result DrugItem
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		d, err := uc.drugRepo.LockByID(txCtx, req.DrugID)
		if err != nil {
			return err
		}

		if err := uc.drugRepo.SetStock(txCtx, d.ID, req.Stock); err != nil {
			return err
		}

		d.CurrentStock = req.Stock
		result = toDrugItem(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SetGaugeVec(metrics.StockLevel,
		map[string]string{"drug": result.Name}, float64(result.CurrentStock))

	if err := uc.cache.Invalidate(ctx, redis.ViewFormulary, redis.ViewInventoryStatus); err != nil {
		fmt.Printf("调整库存后缓存失效失败: %v\n", err)
	}

	return &result, nil
}
