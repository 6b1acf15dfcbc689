package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	"github.com/weihan/medstock/pkg/tracing"
)

// MARDashboardUseCase MAR给药看板用例
//
// 一次预加载查询取回全部执行中医嘱（药品/医生JOIN，给药记录IN批量），
// 在内存中按患者分组，不用SQL GROUP BY。看板是只读快照，
// 一致性要求只到"单次快照查询时点正确"，适合cache-aside
type MARDashboardUseCase struct {
	orderRepo order.Repository
	cache     ViewCache
	ttl       time.Duration
}

// NewMARDashboardUseCase 创建MAR看板用例
func NewMARDashboardUseCase(orderRepo order.Repository, cache ViewCache, ttl time.Duration) *MARDashboardUseCase {
	return &MARDashboardUseCase{
		orderRepo: orderRepo,
		cache:     cache,
		ttl:       ttl,
	}
}

// PatientGroup 单个患者的给药分组
type PatientGroup struct {
	PatientName string      `json:"patient_name"`
	Orders      []OrderItem `json:"orders"`
	Pending     int         `json:"pending_administrations"`
}

// MARSummary 看板汇总
type MARSummary struct {
	PatientCount int `json:"patient_count"`
	ActiveOrders int `json:"active_orders"`
	Pending      int `json:"pending_administrations"`
}

// MARDashboardResponse MAR看板响应DTO
type MARDashboardResponse struct {
	Patients []PatientGroup `json:"patients"`
	Summary  MARSummary     `json:"summary"`
}

// Execute 生成MAR看板
// cache-aside：命中直接返回，未命中回源并回填；写路径提交后删Key
func (uc *MARDashboardUseCase) Execute(ctx context.Context) (*MARDashboardResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "order", "MARDashboard")
	defer span.End()

	if data, hit, _ := uc.cache.Get(ctx, redis.ViewMARDashboard); hit {
		var resp MARDashboardResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		// 缓存内容损坏时当作未命中回源
	}

	orders, err := uc.orderRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	resp := buildDashboard(orders)

	if data, err := json.Marshal(resp); err == nil {
		if err := uc.cache.Set(ctx, redis.ViewMARDashboard, data, uc.ttl); err != nil {
			fmt.Printf("MAR看板缓存回填失败: %v\n", err)
		}
	}

	return resp, nil
}

// buildDashboard 按患者分组并计算待给药数
func buildDashboard(orders []*order.Order) *MARDashboardResponse {
	groups := make(map[string]*PatientGroup)
	totalPending := 0

	for _, o := range orders {
		g, ok := groups[o.PatientName]
		if !ok {
			g = &PatientGroup{PatientName: o.PatientName}
			groups[o.PatientName] = g
		}
		item := toOrderItem(o)
		g.Orders = append(g.Orders, item)
		g.Pending += item.Pending
		totalPending += item.Pending
	}

	patients := make([]PatientGroup, 0, len(groups))
	for _, g := range groups {
		patients = append(patients, *g)
	}
	// map遍历无序，按患者姓名排序保证输出稳定
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].PatientName < patients[j].PatientName
	})

	return &MARDashboardResponse{
		Patients: patients,
		Summary: MARSummary{
			PatientCount: len(patients),
			ActiveOrders: len(orders),
			Pending:      totalPending,
		},
	}
}
