package order

import (
	"context"

	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/pkg/pagination"
)

// ListOrdersUseCase 医嘱列表查询用例
// 游标分页为主，偏移分页仅为兼容旧客户端保留
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

// NewListOrdersUseCase 创建医嘱列表查询用例
func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

// ListOrdersRequest 游标分页请求DTO
type ListOrdersRequest struct {
	Cursor string // 上一页返回的游标，空串表示第一页
	Limit  int    // 页大小
	Kind   string // 排序键：created_at(默认,降序) 或 id(升序)
}

// ListOrdersResponse 游标分页响应DTO
type ListOrdersResponse struct {
	Items      []OrderItem `json:"items"`
	NextCursor string      `json:"next_cursor"`
	HasNext    bool        `json:"has_next"`
}

// Execute 执行游标分页查询
// 仓储按limit+1取数，这里裁掉多出的一行并由被裁页面的最后一行
// 生成next_cursor，判断has_next无需COUNT查询
func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	limit := pagination.NormalizeLimit(req.Limit, 20, 100)

	kind := pagination.KindCreatedAt
	if req.Kind == string(pagination.KindID) {
		kind = pagination.KindID
	}

	cursor, err := pagination.Decode(req.Cursor, kind)
	if err != nil {
		return nil, err
	}

	orders, err := uc.orderRepo.ListCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	orders, hasNext := pagination.Trim(orders, limit)

	resp := &ListOrdersResponse{
		Items:   toOrderItems(orders),
		HasNext: hasNext,
	}
	if hasNext {
		last := orders[len(orders)-1]
		resp.NextCursor = orderCursor(kind, last).Encode()
	}

	return resp, nil
}

// ListOrdersOffsetRequest 偏移分页请求DTO（兼容旧接口）
type ListOrdersOffsetRequest struct {
	Skip  int
	Limit int
}

// ListOrdersOffsetResponse 偏移分页响应DTO
type ListOrdersOffsetResponse struct {
	Items []OrderItem `json:"items"`
	Total int64       `json:"total"`
}

// ExecuteOffset 执行偏移分页查询
// 深分页的扫描成本随Skip线性增长，新客户端应使用游标分页
func (uc *ListOrdersUseCase) ExecuteOffset(ctx context.Context, req ListOrdersOffsetRequest) (*ListOrdersOffsetResponse, error) {
	limit := pagination.NormalizeLimit(req.Limit, 20, 100)
	if req.Skip < 0 {
		req.Skip = 0
	}

	orders, total, err := uc.orderRepo.ListOffset(ctx, req.Skip, limit)
	if err != nil {
		return nil, err
	}

	return &ListOrdersOffsetResponse{
		Items: toOrderItems(orders),
		Total: total,
	}, nil
}

// orderCursor 由页内最后一行生成下一页游标
func orderCursor(kind pagination.Kind, last *order.Order) pagination.Cursor {
	if kind == pagination.KindID {
		return pagination.IDCursor(last.ID)
	}
	return pagination.TimeCursor(pagination.KindCreatedAt, last.CreatedAt, last.ID)
}
