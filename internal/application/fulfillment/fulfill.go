package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/metrics"
	"github.com/weihan/medstock/pkg/tracing"
)

// TxManager 事务边界（*mysql.TxManager实现）
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ViewCache 聚合视图缓存（redis.ViewCache实现）
// 只在事务提交之后调用，Invalidate失败不影响已提交的事务
type ViewCache interface {
	Get(ctx context.Context, view string) ([]byte, bool, error)
	Set(ctx context.Context, view string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, views ...string) error
}

// EventPublisher 领域事件发布（mq.Publisher实现，可为nil表示MQ未启用）
type EventPublisher interface {
	Publish(routingKey string, message interface{}) error
}

// 事件路由键
const (
	EventAdministered     = "medication.administered"
	EventStockLow         = "stock.low"
	EventStockTransferred = "stock.transferred"
)

// FulfillUseCase 履约用例
//
// 整个系统最核心的写路径：一个事务内锁医嘱行、锁药品行、校验状态
// 与库存、扣库存、完成医嘱、落给药记录。锁序全局固定为先医嘱后药品，
// 所有同时持两把锁的路径都必须遵守，否则并发履约会死锁
type FulfillUseCase struct {
	orderRepo order.Repository
	drugRepo  drug.Repository
	txManager TxManager
	cache     ViewCache
	publisher EventPublisher
}

// NewFulfillUseCase 创建履约用例
func NewFulfillUseCase(
	orderRepo order.Repository,
	drugRepo drug.Repository,
	txManager TxManager,
	cache ViewCache,
	publisher EventPublisher,
) *FulfillUseCase {
	return &FulfillUseCase{
		orderRepo: orderRepo,
		drugRepo:  drugRepo,
		txManager: txManager,
		cache:     cache,
		publisher: publisher,
	}
}

// FulfillRequest 履约请求DTO
type FulfillRequest struct {
	OrderID uint // 医嘱ID
	NurseID uint // 执行护士ID(从JWT中提取)
}

// FulfillmentResult 履约结果DTO
type FulfillmentResult struct {
	OrderID        uint   `json:"order_id"`
	PatientName    string `json:"patient_name"`
	DrugID         uint   `json:"drug_id"`
	DrugName       string `json:"drug_name"`
	Dosage         int    `json:"dosage"`
	RemainingStock int    `json:"remaining_stock"`
	NurseID        uint   `json:"nurse_id"`
	Status         string `json:"status"`
	AdministeredAt string `json:"administered_at"`

	// 事件发布用，不出现在响应中
	lowStock  bool
	threshold int
}

// administeredEvent 给药完成事件载荷
type administeredEvent struct {
	OrderID        uint   `json:"order_id"`
	DrugID         uint   `json:"drug_id"`
	DrugName       string `json:"drug_name"`
	NurseID        uint   `json:"nurse_id"`
	Dosage         int    `json:"dosage"`
	RemainingStock int    `json:"remaining_stock"`
	AdministeredAt string `json:"administered_at"`
}

// stockLowEvent 低库存事件载荷
type stockLowEvent struct {
	DrugID       uint   `json:"drug_id"`
	DrugName     string `json:"drug_name"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"threshold"`
}

// Execute 执行单笔履约
//
// 并发正确性依赖两条纪律：
// 1. 同一医嘱的并发履约在医嘱行锁上串行化，只有一个事务能把
//    active转成completed，其余在锁释放后读到completed直接失败；
// 2. 不同医嘱但同一药品的并发履约在药品行锁上串行化，库存校验
//    永远针对持锁后的最新值，不会两个事务都用旧值通过校验。
// 业务错误（不存在/状态冲突/库存不足）回滚后原样上抛，绝不自动重试
func (uc *FulfillUseCase) Execute(ctx context.Context, req FulfillRequest) (*FulfillmentResult, error) {
	ctx, span := tracing.StartSpan(ctx, "fulfillment", "Fulfill")
	defer span.End()

	start := time.Now()

	var result *FulfillmentResult
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		r, err := fulfillOne(txCtx, uc.orderRepo, uc.drugRepo, req.OrderID, req.NurseID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	metrics.ObserveHistogram(metrics.FulfillmentDuration, time.Since(start).Seconds())

	if err != nil {
		metrics.IncCounterVec(metrics.FulfillmentsTotal,
			map[string]string{"result": resultLabel(err)})
		return nil, err
	}

	metrics.IncCounterVec(metrics.FulfillmentsTotal,
		map[string]string{"result": "success"})
	metrics.SetGaugeVec(metrics.StockLevel,
		map[string]string{"drug": result.DrugName}, float64(result.RemainingStock))

	// 提交成功后的副作用：缓存失效与事件发布都是尽力而为，
	// 失败只打日志，不影响已提交的业务事务
	uc.afterCommit(ctx, result)

	return result, nil
}

// fulfillOne 在已开启的事务内履约单个医嘱
// 单笔与批量履约共用；调用方负责事务边界与提交后副作用
func fulfillOne(txCtx context.Context, orderRepo order.Repository, drugRepo drug.Repository, orderID, nurseID uint) (*FulfillmentResult, error) {
	// 第一把锁：医嘱行
	o, err := orderRepo.LockByID(txCtx, orderID)
	if err != nil {
		return nil, err
	}

	// 持锁校验状态机：completed→ErrOrderAlreadyCompleted，
	// discontinued→ErrInvalidStatusTransition
	if err := o.Complete(); err != nil {
		return nil, err
	}

	// 第二把锁：药品行
	d, err := drugRepo.LockByID(txCtx, o.DrugID)
	if err != nil {
		return nil, err
	}

	// 权威库存校验：必须在持锁后进行，入口处的校验只是提示性的
	if d.CurrentStock < o.Dosage {
		return nil, drug.ErrInsufficientStock
	}

	// 原子扣减，WHERE条件兜底防负库存
	if err := drugRepo.UpdateStock(txCtx, d.ID, -o.Dosage); err != nil {
		return nil, err
	}

	if err := orderRepo.UpdateStatus(txCtx, o.ID, order.StatusCompleted); err != nil {
		return nil, err
	}

	admin := &order.Administration{
		OrderID: o.ID,
		NurseID: nurseID,
	}
	if err := orderRepo.CreateAdministration(txCtx, admin); err != nil {
		return nil, err
	}

	remaining := d.CurrentStock - o.Dosage
	return &FulfillmentResult{
		OrderID:        o.ID,
		PatientName:    o.PatientName,
		DrugID:         d.ID,
		DrugName:       d.Name,
		Dosage:         o.Dosage,
		RemainingStock: remaining,
		NurseID:        nurseID,
		Status:         order.StatusCompleted.String(),
		AdministeredAt: admin.AdministrationTime.Format("2006-01-02 15:04:05"),
		lowStock:       remaining <= d.LowStockThreshold,
		threshold:      d.LowStockThreshold,
	}, nil
}

// afterCommit 提交后副作用：失效聚合视图缓存、发布领域事件
func (uc *FulfillUseCase) afterCommit(ctx context.Context, result *FulfillmentResult) {
	if err := uc.cache.Invalidate(ctx,
		redis.ViewFormulary, redis.ViewInventoryStatus, redis.ViewMARDashboard); err != nil {
		fmt.Printf("履约后缓存失效失败: %v\n", err)
	}

	if uc.publisher == nil {
		return
	}

	publish(uc.publisher, EventAdministered, administeredEvent{
		OrderID:        result.OrderID,
		DrugID:         result.DrugID,
		DrugName:       result.DrugName,
		NurseID:        result.NurseID,
		Dosage:         result.Dosage,
		RemainingStock: result.RemainingStock,
		AdministeredAt: result.AdministeredAt,
	})

	if result.lowStock {
		publish(uc.publisher, EventStockLow, stockLowEvent{
			DrugID:       result.DrugID,
			DrugName:     result.DrugName,
			CurrentStock: result.RemainingStock,
			Threshold:    result.threshold,
		})
	}
}

// resultLabel 将履约错误映射为FulfillmentsTotal的result标签值
// 错误码粒度区分失败原因，库存不足/状态冲突/不存在可分别告警
func resultLabel(err error) string {
	switch apperrors.GetAppError(err).Code {
	case apperrors.ErrCodeInsufficientStock:
		return "insufficient_stock"
	case apperrors.ErrCodeStateConflict:
		return "state_conflict"
	case apperrors.ErrCodeOrderNotFound, apperrors.ErrCodeDrugNotFound:
		return "not_found"
	default:
		return "error"
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
