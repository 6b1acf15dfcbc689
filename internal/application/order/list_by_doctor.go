package order

import (
	"context"

	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/internal/domain/user"
)

// ListByDoctorUseCase 按医生查询医嘱用例
type ListByDoctorUseCase struct {
	orderRepo order.Repository
	userRepo  user.Repository
}

// NewListByDoctorUseCase 创建按医生查询用例
func NewListByDoctorUseCase(orderRepo order.Repository, userRepo user.Repository) *ListByDoctorUseCase {
	return &ListByDoctorUseCase{orderRepo: orderRepo, userRepo: userRepo}
}

// ListByDoctorResponse 响应DTO
type ListByDoctorResponse struct {
	DoctorID   uint        `json:"doctor_id"`
	DoctorName string      `json:"doctor_name"`
	Items      []OrderItem `json:"items"`
	Count      int         `json:"count"`
}

// Execute 查询某医生开立的全部医嘱
// 无论医嘱和给药记录有多少，底层查询条数固定（JOIN+按键批量）
func (uc *ListByDoctorUseCase) Execute(ctx context.Context, doctorID uint) (*ListByDoctorResponse, error) {
	doctor, err := uc.userRepo.FindByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	orders, err := uc.orderRepo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	return &ListByDoctorResponse{
		DoctorID:   doctor.ID,
		DoctorName: doctor.Name,
		Items:      toOrderItems(orders),
		Count:      len(orders),
	}, nil
}
