package order

import (
	"github.com/weihan/medstock/internal/domain/order"
)

// OrderItem 医嘱列表项DTO（含JOIN装配的药品/医生与IN批量装配的给药记录）
type OrderItem struct {
	ID              uint                 `json:"id"`
	PatientName     string               `json:"patient_name"`
	Drug            *DrugBrief           `json:"drug,omitempty"`
	Doctor          *ActorBrief          `json:"doctor,omitempty"`
	Dosage          int                  `json:"dosage"`
	Status          string               `json:"status"`
	Pending         int                  `json:"pending_administrations"`
	Administrations []AdministrationItem `json:"administrations"`
	CreatedAt       string               `json:"created_at"`
}

// DrugBrief 药品摘要DTO
type DrugBrief struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Form     string `json:"form"`
	Strength string `json:"strength"`
	Stock    int    `json:"stock"`
}

// ActorBrief 用户摘要DTO
type ActorBrief struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// AdministrationItem 给药记录DTO
type AdministrationItem struct {
	ID      uint        `json:"id"`
	Nurse   *ActorBrief `json:"nurse,omitempty"`
	GivenAt string      `json:"given_at"`
}

// toOrderItem 领域实体 → 列表项DTO
func toOrderItem(o *order.Order) OrderItem {
	item := OrderItem{
		ID:          o.ID,
		PatientName: o.PatientName,
		Dosage:      o.Dosage,
		Status:      o.Status.String(),
		Pending:     o.PendingAdministrations(),
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if o.Drug != nil {
		item.Drug = &DrugBrief{
			ID:       o.Drug.ID,
			Name:     o.Drug.Name,
			Form:     o.Drug.Form,
			Strength: o.Drug.Strength,
			Stock:    o.Drug.CurrentStock,
		}
	}
	if o.Doctor != nil {
		item.Doctor = &ActorBrief{ID: o.Doctor.ID, Name: o.Doctor.Name}
	}

	item.Administrations = make([]AdministrationItem, len(o.Administrations))
	for i, a := range o.Administrations {
		adminItem := AdministrationItem{
			ID:      a.ID,
			GivenAt: a.AdministrationTime.Format("2006-01-02 15:04:05"),
		}
		if a.Nurse != nil {
			adminItem.Nurse = &ActorBrief{ID: a.Nurse.ID, Name: a.Nurse.Name}
		}
		item.Administrations[i] = adminItem
	}

	return item
}

// toOrderItems 批量转换
func toOrderItems(orders []*order.Order) []OrderItem {
	items := make([]OrderItem, len(orders))
	for i, o := range orders {
		items[i] = toOrderItem(o)
	}
	return items
}
