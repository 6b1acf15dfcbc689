package dto

// CreateOrderRequest 开立医嘱请求
type CreateOrderRequest struct {
	PatientName string `json:"patient_name" binding:"required,max=100"`
	DrugID      uint   `json:"drug_id" binding:"required"`
	Dosage      int    `json:"dosage" binding:"required,gt=0"`
}

// FulfillBulkRequest 批量履约请求
type FulfillBulkRequest struct {
	OrderIDs []uint `json:"order_ids" binding:"required,min=1"`
}
