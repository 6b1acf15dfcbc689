package transfer

import (
	"context"

	"github.com/weihan/medstock/internal/domain/transfer"
	"github.com/weihan/medstock/pkg/pagination"
)

// ListTransfersUseCase 转移记录查询用例
type ListTransfersUseCase struct {
	transferRepo transfer.Repository
}

// NewListTransfersUseCase 创建转移记录查询用例
func NewListTransfersUseCase(transferRepo transfer.Repository) *ListTransfersUseCase {
	return &ListTransfersUseCase{transferRepo: transferRepo}
}

// TransferItem 转移记录列表项DTO
type TransferItem struct {
	ID              uint   `json:"id"`
	DrugID          uint   `json:"drug_id"`
	DrugName        string `json:"drug_name"`
	SourceWard      string `json:"source_ward"`
	DestinationWard string `json:"destination_ward"`
	Quantity        int    `json:"quantity"`
	ActorID         uint   `json:"actor_id"`
	ActorName       string `json:"actor_name"`
	TransferDate    string `json:"transfer_date"`
}

// ListTransfersRequest 游标分页请求DTO
type ListTransfersRequest struct {
	Cursor string // 上一页返回的游标，空串表示第一页
	Limit  int    // 页大小
	Kind   string // 排序键：date(默认,转移时间降序) 或 id(升序)
}

// ListTransfersResponse 游标分页响应DTO
type ListTransfersResponse struct {
	Items      []TransferItem `json:"items"`
	NextCursor string         `json:"next_cursor"`
	HasNext    bool           `json:"has_next"`
}

// Execute 执行游标分页查询
func (uc *ListTransfersUseCase) Execute(ctx context.Context, req ListTransfersRequest) (*ListTransfersResponse, error) {
	limit := pagination.NormalizeLimit(req.Limit, 20, 100)

	kind := pagination.KindDate
	if req.Kind == string(pagination.KindID) {
		kind = pagination.KindID
	}

	cursor, err := pagination.Decode(req.Cursor, kind)
	if err != nil {
		return nil, err
	}

	transfers, err := uc.transferRepo.ListCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	transfers, hasNext := pagination.Trim(transfers, limit)

	resp := &ListTransfersResponse{
		Items:   toTransferItems(transfers),
		HasNext: hasNext,
	}
	if hasNext {
		last := transfers[len(transfers)-1]
		if kind == pagination.KindID {
			resp.NextCursor = pagination.IDCursor(last.ID).Encode()
		} else {
			resp.NextCursor = pagination.TimeCursor(pagination.KindDate, last.TransferDate, last.ID).Encode()
		}
	}

	return resp, nil
}

// ListTransfersOffsetRequest 偏移分页请求DTO（兼容旧接口）
type ListTransfersOffsetRequest struct {
	Skip  int
	Limit int
}

// ListTransfersOffsetResponse 偏移分页响应DTO
type ListTransfersOffsetResponse struct {
	Items []TransferItem `json:"items"`
	Total int64          `json:"total"`
}

// ExecuteOffset 执行偏移分页查询
func (uc *ListTransfersUseCase) ExecuteOffset(ctx context.Context, req ListTransfersOffsetRequest) (*ListTransfersOffsetResponse, error) {
	limit := pagination.NormalizeLimit(req.Limit, 20, 100)
	if req.Skip < 0 {
		req.Skip = 0
	}

	transfers, total, err := uc.transferRepo.ListOffset(ctx, req.Skip, limit)
	if err != nil {
		return nil, err
	}

	return &ListTransfersOffsetResponse{
		Items: toTransferItems(transfers),
		Total: total,
	}, nil
}

// toTransferItems 领域实体 → DTO
func toTransferItems(transfers []*transfer.Transfer) []TransferItem {
	items := make([]TransferItem, len(transfers))
	for i, t := range transfers {
		item := TransferItem{
			ID:              t.ID,
			DrugID:          t.DrugID,
			SourceWard:      t.SourceWard,
			DestinationWard: t.DestinationWard,
			Quantity:        t.Quantity,
			ActorID:         t.ActorID,
			TransferDate:    t.TransferDate.Format("2006-01-02 15:04:05"),
		}
		if t.Drug != nil {
			item.DrugName = t.Drug.Name
		}
		if t.Actor != nil {
			item.ActorName = t.Actor.Name
		}
		items[i] = item
	}
	return items
}
