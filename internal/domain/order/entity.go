package order

import (
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/user"
)

// Status 医嘱状态
// 单向状态机：active可以转completed或discontinued，终态不可再转出
type Status int

const (
	StatusActive       Status = 1 // 执行中
	StatusCompleted    Status = 2 // 已完成（终态）
	StatusDiscontinued Status = 3 // 已停用（终态）
)

// String 实现Stringer接口
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusDiscontinued:
		return "discontinued"
	default:
		return "unknown"
	}
}

// Order 医嘱实体（聚合根）
// Administration是聚合内的子实体，只追加不修改；
// CreatedAt是列表接口的游标键
type Order struct {
	ID          uint
	PatientName string
	DrugID      uint
	DoctorID    uint
	Dosage      int // 消耗的库存单位数
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// 关联装配字段：多对一走主查询JOIN，一对多走按键批量查询
	Drug            *drug.Drug
	Doctor          *user.User
	Administrations []Administration
}

// Administration 给药记录（追加型审计子实体）
// AdministrationTime由存储层在插入时赋值，每次成功履约恰好产生一条
type Administration struct {
	ID                 uint
	OrderID            uint
	NurseID            uint
	AdministrationTime time.Time

	Nurse *user.User
}

// NewOrder 创建医嘱（工厂方法），初始状态为active
func NewOrder(patientName string, drugID, doctorID uint, dosage int) *Order {
	now := time.Now()
	return &Order{
		PatientName: patientName,
		DrugID:      drugID,
		DoctorID:    doctorID,
		Dosage:      dosage,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate 校验字段取值
func (o *Order) Validate() error {
	if o.PatientName == "" {
		return ErrInvalidOrder
	}
	if o.Dosage <= 0 {
		return ErrInvalidDosage
	}
	return nil
}

// CanTransitionTo 检查状态转换是否合法
func (o *Order) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusActive:       {StatusCompleted, StatusDiscontinued},
		StatusCompleted:    {}, // 终态
		StatusDiscontinued: {}, // 终态
	}

	allowed, ok := transitions[o.Status]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo 执行状态转换
func (o *Order) TransitionTo(target Status) error {
	if !o.CanTransitionTo(target) {
		if o.Status == StatusCompleted {
			return ErrOrderAlreadyCompleted
		}
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Complete 完成医嘱（履约成功时调用）
func (o *Order) Complete() error {
	return o.TransitionTo(StatusCompleted)
}

// Discontinue 停用医嘱
func (o *Order) Discontinue() error {
	return o.TransitionTo(StatusDiscontinued)
}

// PendingAdministrations 待执行的给药次数
// 以dosage减去已有给药记录数计算，不为负
func (o *Order) PendingAdministrations() int {
	pending := o.Dosage - len(o.Administrations)
	if pending < 0 {
		return 0
	}
	return pending
}
