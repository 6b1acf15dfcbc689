package dto

// CreateDrugRequest 录入药品请求
type CreateDrugRequest struct {
	Name              string `json:"name" binding:"required,max=100"`
	Form              string `json:"form" binding:"required,max=50"`
	Strength          string `json:"strength" binding:"required,max=50"`
	InitialStock      int    `json:"initial_stock" binding:"min=0"`
	LowStockThreshold int    `json:"low_stock_threshold" binding:"min=0"`
}

// UpdateStockRequest 直接调整库存请求
// 替换值必须非负；负数在Handler绑定层就被拒绝
type UpdateStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

// TransferStockRequest 库存转移请求
type TransferStockRequest struct {
	SourceWard      string `json:"source_ward" binding:"required,max=50"`
	DestinationWard string `json:"destination_ward" binding:"required,max=50"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
}

// CursorQuery 游标分页查询参数
type CursorQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"`
	Kind   string `form:"kind"`
}

// OffsetQuery 偏移分页查询参数（兼容旧接口）
type OffsetQuery struct {
	Skip  int `form:"skip" binding:"min=0"`
	Limit int `form:"limit"`
}
