package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/transfer"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	"github.com/weihan/medstock/pkg/metrics"
)

// TxManager 事务边界（*mysql.TxManager实现）
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ViewCache 聚合视图缓存（redis.ViewCache实现）
type ViewCache interface {
	Get(ctx context.Context, view string) ([]byte, bool, error)
	Set(ctx context.Context, view string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, views ...string) error
}

// EventPublisher 领域事件发布（mq.Publisher实现，可为nil表示MQ未启用）
type EventPublisher interface {
	Publish(routingKey string, message interface{}) error
}

// TransferStockUseCase 科室间库存转移用例
//
// 与履约共用锁纪律：持药品行锁校验数量与库存，同一事务内扣减
// 全局库存并落审计行，任一步失败整体回滚，不会出现孤儿审计行。
// 不维护科室级库存台账，审计行只记录来源/目的科室
type TransferStockUseCase struct {
	drugRepo     drug.Repository
	transferRepo transfer.Repository
	txManager    TxManager
	cache        ViewCache
	publisher    EventPublisher
}

// NewTransferStockUseCase 创建库存转移用例
func NewTransferStockUseCase(
	drugRepo drug.Repository,
	transferRepo transfer.Repository,
	txManager TxManager,
	cache ViewCache,
	publisher EventPublisher,
) *TransferStockUseCase {
	return &TransferStockUseCase{
		drugRepo:     drugRepo,
		transferRepo: transferRepo,
		txManager:    txManager,
		cache:        cache,
		publisher:    publisher,
	}
}

// TransferStockRequest 库存转移请求DTO
type TransferStockRequest struct {
	DrugID          uint   // 药品ID
	SourceWard      string // 来源科室
	DestinationWard string // 目的科室
	Quantity        int    // 转移数量(>0)
	ActorID         uint   // 操作人ID(从JWT中提取)
}

// TransferRecord 库存转移结果DTO
type TransferRecord struct {
	TransferID      uint   `json:"transfer_id"`
	DrugID          uint   `json:"drug_id"`
	DrugName        string `json:"drug_name"`
	SourceWard      string `json:"source_ward"`
	DestinationWard string `json:"destination_ward"`
	Quantity        int    `json:"quantity"`
	RemainingStock  int    `json:"remaining_stock"`
	ActorID         uint   `json:"actor_id"`
	TransferDate    string `json:"transfer_date"`
}

// transferredEvent 库存转移事件载荷
type transferredEvent struct {
	TransferID      uint   `json:"transfer_id"`
	DrugID          uint   `json:"drug_id"`
	DrugName        string `json:"drug_name"`
	SourceWard      string `json:"source_ward"`
	DestinationWard string `json:"destination_ward"`
	Quantity        int    `json:"quantity"`
	RemainingStock  int    `json:"remaining_stock"`
	ActorID         uint   `json:"actor_id"`
}

// stockLowEvent 低库存事件载荷
type stockLowEvent struct {
	DrugID       uint   `json:"drug_id"`
	DrugName     string `json:"drug_name"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"threshold"`
}

// Execute 执行库存转移
func (uc *TransferStockUseCase) Execute(ctx context.Context, req TransferStockRequest) (*TransferRecord, error) {
	t := transfer.NewTransfer(req.DrugID, req.SourceWard, req.DestinationWard, req.Quantity, req.ActorID)
	// 参数类校验不碰数据库
	if err := t.Validate(); err != nil {
		metrics.IncCounterVec(metrics.TransfersTotal,
			map[string]string{"result": "failure"})
		return nil, err
	}

	var result *TransferRecord
	var lowStock bool
	var threshold int
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		d, err := uc.drugRepo.LockByID(txCtx, req.DrugID)
		if err != nil {
			return err
		}

		// 持锁后的权威库存校验
		if d.CurrentStock < req.Quantity {
			return drug.ErrInsufficientStock
		}

		if err := uc.drugRepo.UpdateStock(txCtx, d.ID, -req.Quantity); err != nil {
			return err
		}

		if err := uc.transferRepo.Create(txCtx, t); err != nil {
			return err
		}

		remaining := d.CurrentStock - req.Quantity
		lowStock = remaining <= d.LowStockThreshold
		threshold = d.LowStockThreshold
		result = &TransferRecord{
			TransferID:      t.ID,
			DrugID:          d.ID,
			DrugName:        d.Name,
			SourceWard:      t.SourceWard,
			DestinationWard: t.DestinationWard,
			Quantity:        t.Quantity,
			RemainingStock:  remaining,
			ActorID:         t.ActorID,
			TransferDate:    t.TransferDate.Format("2006-01-02 15:04:05"),
		}
		return nil
	})
	if err != nil {
		metrics.IncCounterVec(metrics.TransfersTotal,
			map[string]string{"result": "failure"})
		return nil, err
	}

	metrics.IncCounterVec(metrics.TransfersTotal,
		map[string]string{"result": "success"})
	metrics.SetGaugeVec(metrics.StockLevel,
		map[string]string{"drug": result.DrugName}, float64(result.RemainingStock))

	if err := uc.cache.Invalidate(ctx, redis.ViewFormulary, redis.ViewInventoryStatus); err != nil {
		fmt.Printf("库存转移后缓存失效失败: %v\n", err)
	}

	if uc.publisher != nil {
		uc.publishEvents(result, lowStock, threshold)
	}

	return result, nil
}

// publishEvents 提交后事件发布，失败只打日志
func (uc *TransferStockUseCase) publishEvents(r *TransferRecord, lowStock bool, threshold int) {
	publish(uc.publisher, "stock.transferred", transferredEvent{
		TransferID:      r.TransferID,
		DrugID:          r.DrugID,
		DrugName:        r.DrugName,
		SourceWard:      r.SourceWard,
		DestinationWard: r.DestinationWard,
		Quantity:        r.Quantity,
		RemainingStock:  r.RemainingStock,
		ActorID:         r.ActorID,
	})

	if lowStock {
		publish(uc.publisher, "stock.low", stockLowEvent{
			DrugID:       r.DrugID,
			DrugName:     r.DrugName,
			CurrentStock: r.RemainingStock,
			Threshold:    threshold,
		})
	}
}

// publish 发布事件并记录指标
func publish(p EventPublisher, routingKey string, message interface{}) {
	if err := p.Publish(routingKey, message); err != nil {
		metrics.IncCounterVec(metrics.MessagesPublishedTotal,
			map[string]string{"routing_key": routingKey, "result": "failure"})
		fmt.Printf("事件发布失败[%s]: %v\n", routingKey, err)
		return
	}
	metrics.IncCounterVec(metrics.MessagesPublishedTotal,
		map[string]string{"routing_key": routingKey, "result": "success"})
}
