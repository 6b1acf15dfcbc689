package drug

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/infrastructure/persistence/redis"
	"github.com/weihan/medstock/pkg/pagination"
)

// ListDrugsUseCase 药品目录查询用例
type ListDrugsUseCase struct {
	drugRepo drug.Repository
	cache    ViewCache
	ttl      time.Duration
}

// NewListDrugsUseCase 创建药品目录查询用例
func NewListDrugsUseCase(drugRepo drug.Repository, cache ViewCache, ttl time.Duration) *ListDrugsUseCase {
	return &ListDrugsUseCase{drugRepo: drugRepo, cache: cache, ttl: ttl}
}

// ListDrugsRequest 游标分页请求DTO
type ListDrugsRequest struct {
	Cursor string // 上一页返回的游标，空串表示第一页
	Limit  int    // 页大小
	Kind   string // 排序键：name(默认,升序) 或 id(升序)
}

// ListDrugsResponse 游标分页响应DTO
type ListDrugsResponse struct {
	Items      []DrugItem `json:"items"`
	NextCursor string     `json:"next_cursor"`
	HasNext    bool       `json:"has_next"`
}

const defaultPageSize = 20

// Execute 执行药品目录查询
// 默认首页（无游标、按名称、默认页大小）是目录的热点请求，走cache-aside；
// 其余页直接回源
func (uc *ListDrugsUseCase) Execute(ctx context.Context, req ListDrugsRequest) (*ListDrugsResponse, error) {
	limit := pagination.NormalizeLimit(req.Limit, defaultPageSize, 100)

	kind := pagination.KindName
	if req.Kind == string(pagination.KindID) {
		kind = pagination.KindID
	}

	cacheable := req.Cursor == "" && kind == pagination.KindName && limit == defaultPageSize
	if cacheable {
		if data, hit, _ := uc.cache.Get(ctx, redis.ViewFormulary); hit {
			var resp ListDrugsResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	cursor, err := pagination.Decode(req.Cursor, kind)
	if err != nil {
		return nil, err
	}

	drugs, err := uc.drugRepo.ListCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	drugs, hasNext := pagination.Trim(drugs, limit)

	resp := &ListDrugsResponse{
		Items:   toDrugItems(drugs),
		HasNext: hasNext,
	}
	if hasNext {
		last := drugs[len(drugs)-1]
		if kind == pagination.KindID {
			resp.NextCursor = pagination.IDCursor(last.ID).Encode()
		} else {
			resp.NextCursor = pagination.StringCursor(pagination.KindName, last.Name, last.ID).Encode()
		}
	}

	if cacheable {
		if data, err := json.Marshal(resp); err == nil {
			if err := uc.cache.Set(ctx, redis.ViewFormulary, data, uc.ttl); err != nil {
				fmt.Printf("药品目录缓存回填失败: %v\n", err)
			}
		}
	}

	return resp, nil
}

// ListDrugsOffsetRequest 偏移分页请求DTO（兼容旧接口）
type ListDrugsOffsetRequest struct {
	Skip  int
	Limit int
}

// ListDrugsOffsetResponse 偏移分页响应DTO
type ListDrugsOffsetResponse struct {
	Items []DrugItem `json:"items"`
	Total int64      `json:"total"`
}

// ExecuteOffset 执行偏移分页查询
func (uc *ListDrugsUseCase) ExecuteOffset(ctx context.Context, req ListDrugsOffsetRequest) (*ListDrugsOffsetResponse, error) {
	limit := pagination.NormalizeLimit(req.Limit, defaultPageSize, 100)
	if req.Skip < 0 {
		req.Skip = 0
	}

	drugs, total, err := uc.drugRepo.ListOffset(ctx, req.Skip, limit)
	if err != nil {
		return nil, err
	}

	return &ListDrugsOffsetResponse{
		Items: toDrugItems(drugs),
		Total: total,
	}, nil
}
