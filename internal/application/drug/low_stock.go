package drug

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
)

// LowStockUseCase 低库存视图用例
// 药学部补货巡检的入口，cache-aside缓存整个视图
type LowStockUseCase struct {
	drugRepo drug.Repository
	cache    ViewCache
	ttl      time.Duration
}

// NewLowStockUseCase 创建低库存视图用例
func NewLowStockUseCase(drugRepo drug.Repository, cache ViewCache, ttl time.Duration) *LowStockUseCase {
	return &LowStockUseCase{drugRepo: drugRepo, cache: cache, ttl: ttl}
}

// LowStockResponse 低库存视图响应DTO
type LowStockResponse struct {
	Items []DrugItem `json:"items"`
	Count int        `json:"count"`
}

// Execute 查询库存不高于阈值的药品
func (uc *LowStockUseCase) Execute(ctx context.Context) (*LowStockResponse, error) {
	if data, hit, _ := uc.cache.Get(ctx, redis.ViewInventoryStatus); hit {
		var resp LowStockResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
	}

	drugs, err := uc.drugRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	resp := &LowStockResponse{
		Items: toDrugItems(drugs),
		Count: len(drugs),
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := uc.cache.Set(ctx, redis.ViewInventoryStatus, data, uc.ttl); err != nil {
			fmt.Printf("低库存视图缓存回填失败: %v\n", err)
		}
	}

	return resp, nil
}
