package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weihan/medstock/internal/domain/order"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/pagination"
)

// orderRepository 医嘱仓储实现(MySQL)
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建医嘱仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// withAssociations 标准关联装配
// 多对一(Drug/Doctor)走主查询JOIN；一对多(Administrations及其Nurse)
// 走Preload，GORM按主键集合发IN批量查询，每层一条，与行数无关
func (r *orderRepository) withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Joins("Drug").
		Joins("Doctor").
		Preload("Administrations").
		Preload("Administrations.Nurse")
}

// Create 创建医嘱
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	model := &OrderModel{
		PatientName: o.PatientName,
		DrugID:      o.DrugID,
		DoctorID:    o.DoctorID,
		Dosage:      o.Dosage,
		Status:      int(o.Status),
	}

	db := getDB(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建医嘱失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找医嘱（完整装配关联，不加锁）
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	err := r.withAssociations(r.db.WithContext(ctx)).
		First(&model, "medication_orders.id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询医嘱失败")
	}

	return toOrderEntity(&model), nil
}

// LockByID 悲观锁查找医嘱
// 只锁医嘱行本身，不JOIN关联表，避免FOR UPDATE锁面扩大到药品/用户行；
// 药品行的锁由调用方随后用drug.LockByID单独获取，保证固定锁序
func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	db := getDB(ctx, r.db)
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "锁定医嘱失败")
	}

	return toOrderEntity(&model), nil
}

// UpdateStatus 更新医嘱状态
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status order.Status) error {
	db := getDB(ctx, r.db)
	result := db.Model(&OrderModel{}).
		Where("id = ?", id).
		Update("status", int(status))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新医嘱状态失败")
	}

	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

// CreateAdministration 追加给药记录
func (r *orderRepository) CreateAdministration(ctx context.Context, a *order.Administration) error {
	model := &AdministrationModel{
		OrderID: a.OrderID,
		NurseID: a.NurseID,
	}

	db := getDB(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建给药记录失败")
	}

	a.ID = model.ID
	a.AdministrationTime = model.AdministrationTime

	return nil
}

// ListOffset 偏移分页
func (r *orderRepository) ListOffset(ctx context.Context, skip, limit int) ([]*order.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询医嘱总数失败")
	}

	var models []OrderModel
	err := r.withAssociations(r.db.WithContext(ctx)).
		Order("medication_orders.created_at DESC, medication_orders.id DESC").
		Limit(limit).
		Offset(skip).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询医嘱列表失败")
	}

	return toOrderEntities(models), total, nil
}

// ListCursor 游标分页
// created_at降序游标按(created_at, id)复合键过滤：datetime(3)精度下
// 同一毫秒可能落多行，单独比较created_at会漏掉与边界行并列的行；
// limit+1行交由上层裁剪判断has_next
func (r *orderRepository) ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*order.Order, error) {
	query := r.withAssociations(r.db.WithContext(ctx))

	switch cursor.Kind {
	case pagination.KindCreatedAt:
		if !cursor.IsZero() {
			ts, err := cursor.Time()
			if err != nil {
				return nil, err
			}
			query = query.Where("(medication_orders.created_at, medication_orders.id) < (?, ?)", ts, cursor.ID)
		}
		query = query.Order("medication_orders.created_at DESC, medication_orders.id DESC")
	case pagination.KindID:
		if !cursor.IsZero() {
			id, err := cursor.Uint()
			if err != nil {
				return nil, err
			}
			query = query.Where("medication_orders.id > ?", id)
		}
		query = query.Order("medication_orders.id ASC")
	default:
		return nil, pagination.ErrInvalidCursor
	}

	var models []OrderModel
	if err := query.Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询医嘱列表失败")
	}

	return toOrderEntities(models), nil
}

// ListByDoctor 查询某医生开立的全部医嘱
func (r *orderRepository) ListByDoctor(ctx context.Context, doctorID uint) ([]*order.Order, error) {
	var models []OrderModel
	err := r.withAssociations(r.db.WithContext(ctx)).
		Where("medication_orders.doctor_id = ?", doctorID).
		Order("medication_orders.created_at DESC, medication_orders.id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询医生医嘱失败")
	}

	return toOrderEntities(models), nil
}

// ListActive 查询全部执行中的医嘱
// 固定三条关联查询(Administrations、Nurse各一条IN查询)，MAR看板
// 的查询次数不随医嘱数量增长
func (r *orderRepository) ListActive(ctx context.Context) ([]*order.Order, error) {
	var models []OrderModel
	err := r.withAssociations(r.db.WithContext(ctx)).
		Where("medication_orders.status = ?", int(order.StatusActive)).
		Order("medication_orders.created_at DESC, medication_orders.id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询执行中医嘱失败")
	}

	return toOrderEntities(models), nil
}

// toOrderEntity GORM模型 → 领域实体
// 关联字段按是否装配转换：JOIN未命中时外联结果为零值，以ID判断
func toOrderEntity(model *OrderModel) *order.Order {
	o := &order.Order{
		ID:          model.ID,
		PatientName: model.PatientName,
		DrugID:      model.DrugID,
		DoctorID:    model.DoctorID,
		Dosage:      model.Dosage,
		Status:      order.Status(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.Drug.ID != 0 {
		o.Drug = toDrugEntity(&model.Drug)
	}
	if model.Doctor.ID != 0 {
		o.Doctor = toUserEntity(&model.Doctor)
	}
	if len(model.Administrations) > 0 {
		o.Administrations = make([]order.Administration, len(model.Administrations))
		for i := range model.Administrations {
			o.Administrations[i] = toAdministrationEntity(&model.Administrations[i])
		}
	}

	return o
}

func toOrderEntities(models []OrderModel) []*order.Order {
	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders
}

func toAdministrationEntity(model *AdministrationModel) order.Administration {
	a := order.Administration{
		ID:                 model.ID,
		OrderID:            model.OrderID,
		NurseID:            model.NurseID,
		AdministrationTime: model.AdministrationTime,
	}
	if model.Nurse.ID != 0 {
		a.Nurse = toUserEntity(&model.Nurse)
	}
	return a
}
