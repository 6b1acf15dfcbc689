package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/metrics"
	"github.com/weihan/medstock/pkg/tracing"
)

// FulfillBulkUseCase 批量履约用例
//
// 全部成功或全部回滚：单个事务内按医嘱链依次履约，任一医嘱校验失败
// 整批回滚，并报告失败的医嘱ID。医嘱按ID升序加锁，两个并发批量即使
// 医嘱集合有交集，锁的获取顺序也一致，不会互相死锁
type FulfillBulkUseCase struct {
	orderRepo order.Repository
	drugRepo  drug.Repository
	txManager TxManager
	cache     ViewCache
	publisher EventPublisher
}

// NewFulfillBulkUseCase 创建批量履约用例
func NewFulfillBulkUseCase(
	orderRepo order.Repository,
	drugRepo drug.Repository,
	txManager TxManager,
	cache ViewCache,
	publisher EventPublisher,
) *FulfillBulkUseCase {
	return &FulfillBulkUseCase{
		orderRepo: orderRepo,
		drugRepo:  drugRepo,
		txManager: txManager,
		cache:     cache,
		publisher: publisher,
	}
}

// FulfillBulkRequest 批量履约请求DTO
type FulfillBulkRequest struct {
	OrderIDs []uint // 医嘱ID列表
	NurseID  uint   // 执行护士ID(从JWT中提取)
}

// FulfillBulkResponse 批量履约响应DTO
type FulfillBulkResponse struct {
	Results []*FulfillmentResult `json:"results"`
	Count   int                  `json:"count"`
}

// Execute 执行批量履约
// 失败时错误信息带上失败的医嘱ID，方便调用方定位整批回滚的原因
func (uc *FulfillBulkUseCase) Execute(ctx context.Context, req FulfillBulkRequest) (*FulfillBulkResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "fulfillment", "FulfillBulk")
	defer span.End()

	if len(req.OrderIDs) == 0 {
		return nil, order.ErrEmptyBatch
	}

	// 去重并按ID升序，固定批内加锁顺序
	ids := dedupeSorted(req.OrderIDs)

	start := time.Now()

	results := make([]*FulfillmentResult, 0, len(ids))
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		for _, orderID := range ids {
			r, err := fulfillOne(txCtx, uc.orderRepo, uc.drugRepo, orderID, req.NurseID)
			if err != nil {
				appErr := apperrors.GetAppError(err)
				return apperrors.New(appErr.Code,
					fmt.Sprintf("医嘱[%d]履约失败: %s", orderID, appErr.Message))
			}
			results = append(results, r)
		}
		return nil
	})

	metrics.ObserveHistogram(metrics.FulfillmentDuration, time.Since(start).Seconds())

	if err != nil {
		metrics.IncCounterVec(metrics.FulfillmentsTotal,
			map[string]string{"result": resultLabel(err)})
		return nil, err
	}

	for _, r := range results {
		metrics.IncCounterVec(metrics.FulfillmentsTotal,
			map[string]string{"result": "success"})
		metrics.SetGaugeVec(metrics.StockLevel,
			map[string]string{"drug": r.DrugName}, float64(r.RemainingStock))
	}

	uc.afterCommit(ctx, results)

	return &FulfillBulkResponse{Results: results, Count: len(results)}, nil
}

// afterCommit 提交后副作用：缓存失效一次，事件逐条发布
func (uc *FulfillBulkUseCase) afterCommit(ctx context.Context, results []*FulfillmentResult) {
	if err := uc.cache.Invalidate(ctx,
		redis.ViewFormulary, redis.ViewInventoryStatus, redis.ViewMARDashboard); err != nil {
		fmt.Printf("批量履约后缓存失效失败: %v\n", err)
	}

	if uc.publisher == nil {
		return
	}

	for _, r := range results {
		publish(uc.publisher, EventAdministered, administeredEvent{
			OrderID:        r.OrderID,
			DrugID:         r.DrugID,
			DrugName:       r.DrugName,
			NurseID:        r.NurseID,
			Dosage:         r.Dosage,
			RemainingStock: r.RemainingStock,
			AdministeredAt: r.AdministeredAt,
		})
		if r.lowStock {
			publish(uc.publisher, EventStockLow, stockLowEvent{
				DrugID:       r.DrugID,
				DrugName:     r.DrugName,
				CurrentStock: r.RemainingStock,
				Threshold:    r.threshold,
			})
		}
	}
}

// dedupeSorted 去重并升序排列
func dedupeSorted(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
