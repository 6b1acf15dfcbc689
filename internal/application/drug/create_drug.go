package drug

import (
	"context"
	"fmt"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
)

// ViewCache 聚合视图缓存（redis.ViewCache实现）
type ViewCache interface {
	Get(ctx context.Context, view string) ([]byte, bool, error)
	Set(ctx context.Context, view string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, views ...string) error
}

// TxManager 事务边界（*mysql.TxManager实现）
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateDrugUseCase 录入药品用例
type CreateDrugUseCase struct {
	drugRepo drug.Repository
	cache    ViewCache
}

// NewCreateDrugUseCase 创建录入药品用例
func NewCreateDrugUseCase(drugRepo drug.Repository, cache ViewCache) *CreateDrugUseCase {
	return &CreateDrugUseCase{drugRepo: drugRepo, cache: cache}
}

// CreateDrugRequest 录入药品请求DTO
type CreateDrugRequest struct {
	Name              string // 药品名称
	Form              string // 剂型(片剂/注射液等)
	Strength          string // 规格(如500mg)
	InitialStock      int    // 初始库存
	LowStockThreshold int    // 低库存阈值
}

// DrugItem 药品DTO
type DrugItem struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Form              string `json:"form"`
	Strength          string `json:"strength"`
	CurrentStock      int    `json:"current_stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	IsLowStock        bool   `json:"is_low_stock"`
	CreatedAt         string `json:"created_at"`
}

// Execute 执行录入药品
// 名称+剂型+规格三元组唯一，重复由数据库唯一索引兜底
func (uc *CreateDrugUseCase) Execute(ctx context.Context, req CreateDrugRequest) (*DrugItem, error) {
	d := drug.NewDrug(req.Name, req.Form, req.Strength, req.InitialStock, req.LowStockThreshold)

	if err := uc.drugRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	if err := uc.cache.Invalidate(ctx, redis.ViewFormulary, redis.ViewInventoryStatus); err != nil {
		fmt.Printf("录入药品后缓存失效失败: %v\n", err)
	}

	item := toDrugItem(d)
	return &item, nil
}

// toDrugItem 领域实体 → DTO
func toDrugItem(d *drug.Drug) DrugItem {
	return DrugItem{
		ID:                d.ID,
		Name:              d.Name,
		Form:              d.Form,
		Strength:          d.Strength,
		CurrentStock:      d.CurrentStock,
		LowStockThreshold: d.LowStockThreshold,
		IsLowStock:        d.IsLowStock(),
		CreatedAt:         d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// toDrugItems 批量转换
func toDrugItems(drugs []*drug.Drug) []DrugItem {
	items := make([]DrugItem, len(drugs))
	for i, d := range drugs {
		items[i] = toDrugItem(d)
	}
	return items
}
