package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weihan/medstock/internal/domain/drug"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/pagination"
)

// drugRepository 药品仓储实现(MySQL)
// 所有库存变更路径共用同一套锁纪律：LockByID持有行锁后校验再修改
type drugRepository struct {
	db *gorm.DB
}

// NewDrugRepository 创建药品仓储
func NewDrugRepository(db *gorm.DB) drug.Repository {
	return &drugRepository{db: db}
}

// Create 创建药品
func (r *drugRepository) Create(ctx context.Context, d *drug.Drug) error {
	if err := d.Validate(); err != nil {
		return err
	}

	model := &DrugModel{
		Name:              d.Name,
		Form:              d.Form,
		Strength:          d.Strength,
		CurrentStock:      d.CurrentStock,
		LowStockThreshold: d.LowStockThreshold,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return drug.ErrDrugDuplicate
		}
		return apperrors.Wrap(err, "创建药品失败")
	}

	d.ID = model.ID
	d.CreatedAt = model.CreatedAt
	d.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找药品（不加锁，读路径专用）
func (r *drugRepository) FindByID(ctx context.Context, id uint) (*drug.Drug, error) {
	var model DrugModel
	err := r.db.WithContext(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, drug.ErrDrugNotFound
		}
		return nil, apperrors.Wrap(err, "查询药品失败")
	}

	return toDrugEntity(&model), nil
}

// LockByID 悲观锁查找药品
// SELECT * FROM drugs WHERE id = ? FOR UPDATE
// 必须通过getDB(ctx)参与调用方事务，否则锁随语句自动提交立即释放
func (r *drugRepository) LockByID(ctx context.Context, id uint) (*drug.Drug, error) {
	var model DrugModel
	db := getDB(ctx, r.db)
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, drug.ErrDrugNotFound
		}
		return nil, apperrors.Wrap(err, "锁定药品失败")
	}

	return toDrugEntity(&model), nil
}

// UpdateStock 原子增减库存
// UPDATE drugs SET current_stock = current_stock + ? WHERE id = ? AND current_stock + ? >= 0
// WHERE条件防止负库存；RowsAffected=0时回查区分"不存在"与"库存不足"
func (r *drugRepository) UpdateStock(ctx context.Context, id uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&DrugModel{}).
		Where("id = ?", id).
		Where("current_stock + ? >= 0", delta).
		Update("current_stock", gorm.Expr("current_stock + ?", delta))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		var model DrugModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return drug.ErrDrugNotFound
			}
			return apperrors.Wrap(err, "查询药品失败")
		}
		return drug.ErrInsufficientStock
	}

	return nil
}

// SetStock 直接替换库存值
// 调用方先LockByID持锁并校验value非负
func (r *drugRepository) SetStock(ctx context.Context, id uint, value int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&DrugModel{}).
		Where("id = ?", id).
		Update("current_stock", value)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		return drug.ErrDrugNotFound
	}

	return nil
}

// ListOffset 偏移分页
// OFFSET扫描成本随skip线性增长，仅为兼容旧客户端保留
func (r *drugRepository) ListOffset(ctx context.Context, skip, limit int) ([]*drug.Drug, int64, error) {
	var models []DrugModel
	var total int64

	query := r.db.WithContext(ctx).Model(&DrugModel{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询药品总数失败")
	}

	err := query.Order("name ASC, id ASC").
		Limit(limit).
		Offset(skip).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询药品列表失败")
	}

	drugs := make([]*drug.Drug, len(models))
	for i := range models {
		drugs[i] = toDrugEntity(&models[i])
	}

	return drugs, total, nil
}

// ListCursor 游标分页
// 按limit+1取数，多出的一行由上层裁掉用于判断has_next；
// name非唯一（同名不同剂型/规格），升序按(name, id)复合键过滤，
// 单页扫描成本与翻页深度无关
func (r *drugRepository) ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*drug.Drug, error) {
	query := r.db.WithContext(ctx).Model(&DrugModel{})

	switch cursor.Kind {
	case pagination.KindName:
		if !cursor.IsZero() {
			query = query.Where("(name, id) > (?, ?)", cursor.Value, cursor.ID)
		}
		query = query.Order("name ASC, id ASC")
	case pagination.KindID:
		if !cursor.IsZero() {
			id, err := cursor.Uint()
			if err != nil {
				return nil, err
			}
			query = query.Where("id > ?", id)
		}
		query = query.Order("id ASC")
	default:
		return nil, pagination.ErrInvalidCursor
	}

	var models []DrugModel
	if err := query.Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询药品列表失败")
	}

	drugs := make([]*drug.Drug, len(models))
	for i := range models {
		drugs[i] = toDrugEntity(&models[i])
	}

	return drugs, nil
}

// ListLowStock 低库存药品
func (r *drugRepository) ListLowStock(ctx context.Context) ([]*drug.Drug, error) {
	var models []DrugModel
	err := r.db.WithContext(ctx).
		Where("current_stock <= low_stock_threshold").
		Order("current_stock ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询低库存药品失败")
	}

	drugs := make([]*drug.Drug, len(models))
	for i := range models {
		drugs[i] = toDrugEntity(&models[i])
	}

	return drugs, nil
}

// toDrugEntity GORM模型 → 领域实体
func toDrugEntity(model *DrugModel) *drug.Drug {
	return &drug.Drug{
		ID:                model.ID,
		Name:              model.Name,
		Form:              model.Form,
		Strength:          model.Strength,
		CurrentStock:      model.CurrentStock,
		LowStockThreshold: model.LowStockThreshold,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}
