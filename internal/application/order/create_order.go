package order

import (
	"context"
	"fmt"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
)

// ViewCache 聚合视图缓存（redis.ViewCache实现）
type ViewCache interface {
	Get(ctx context.Context, view string) ([]byte, bool, error)
	Set(ctx context.Context, view string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, views ...string) error
}

// CreateOrderUseCase 开立医嘱用例
type CreateOrderUseCase struct {
	orderRepo order.Repository
	drugRepo  drug.Repository
	cache     ViewCache
}

// NewCreateOrderUseCase 创建开立医嘱用例
func NewCreateOrderUseCase(orderRepo order.Repository, drugRepo drug.Repository, cache ViewCache) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo: orderRepo,
		drugRepo:  drugRepo,
		cache:     cache,
	}
}

// CreateOrderRequest 开立医嘱请求DTO
type CreateOrderRequest struct {
	PatientName string // 患者姓名
	DrugID      uint   // 药品ID
	DoctorID    uint   // 开立医生ID(从JWT中提取)
	Dosage      int    // 剂量(消耗库存单位数)
}

// CreateOrderResponse 开立医嘱响应DTO
type CreateOrderResponse struct {
	OrderID     uint   `json:"order_id"`
	PatientName string `json:"patient_name"`
	DrugName    string `json:"drug_name"`
	Dosage      int    `json:"dosage"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// Execute 执行开立医嘱
// 开立时只做提示性的库存检查：真正的权威校验发生在履约的行锁内，
// 开立本身不加锁也不扣库存
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	d, err := uc.drugRepo.FindByID(ctx, req.DrugID)
	if err != nil {
		return nil, err
	}

	o := order.NewOrder(req.PatientName, req.DrugID, req.DoctorID, req.Dosage)
	if err := uc.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	if err := uc.cache.Invalidate(ctx, redis.ViewMARDashboard); err != nil {
		fmt.Printf("开立医嘱后缓存失效失败: %v\n", err)
	}

	return &CreateOrderResponse{
		OrderID:     o.ID,
		PatientName: o.PatientName,
		DrugName:    d.Name,
		Dosage:      o.Dosage,
		Status:      o.Status.String(),
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}
