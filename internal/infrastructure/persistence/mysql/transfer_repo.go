package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weihan/medstock/internal/domain/transfer"
	apperrors "github.com/weihan/medstock/pkg/errors"
	"github.com/weihan/medstock/pkg/pagination"
)

// transferRepository 库存转移仓储实现(MySQL)
type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository 创建库存转移仓储
func NewTransferRepository(db *gorm.DB) transfer.Repository {
	return &transferRepository{db: db}
}

// Create 落转移审计行
// 通过getDB(ctx)参与调用方事务，与库存扣减同提交同回滚
func (r *transferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	if err := t.Validate(); err != nil {
		return err
	}

	model := &TransferModel{
		DrugID:          t.DrugID,
		SourceWard:      t.SourceWard,
		DestinationWard: t.DestinationWard,
		Quantity:        t.Quantity,
		ActorID:         t.ActorID,
	}

	db := getDB(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建转移记录失败")
	}

	t.ID = model.ID
	t.TransferDate = model.TransferDate

	return nil
}

// FindByID 根据ID查找转移记录
func (r *transferRepository) FindByID(ctx context.Context, id uint) (*transfer.Transfer, error) {
	var model TransferModel
	err := r.db.WithContext(ctx).
		Joins("Drug").
		Joins("Actor").
		First(&model, "stock_transfers.id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transfer.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(err, "查询转移记录失败")
	}

	return toTransferEntity(&model), nil
}

// ListOffset 偏移分页
func (r *transferRepository) ListOffset(ctx context.Context, skip, limit int) ([]*transfer.Transfer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TransferModel{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询转移总数失败")
	}

	var models []TransferModel
	err := r.db.WithContext(ctx).
		Joins("Drug").
		Joins("Actor").
		Order("stock_transfers.transfer_date DESC, stock_transfers.id DESC").
		Limit(limit).
		Offset(skip).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询转移列表失败")
	}

	return toTransferEntities(models), total, nil
}

// ListCursor 游标分页
// 多对一关联(Drug/Actor)在主查询JOIN一次取回，limit+1行交上层裁剪；
// transfer_date降序按(transfer_date, id)复合键过滤，避免漏掉
// 与边界行同一毫秒的并列行
func (r *transferRepository) ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*transfer.Transfer, error) {
	query := r.db.WithContext(ctx).
		Joins("Drug").
		Joins("Actor")

	switch cursor.Kind {
	case pagination.KindDate:
		if !cursor.IsZero() {
			ts, err := cursor.Time()
			if err != nil {
				return nil, err
			}
			query = query.Where("(stock_transfers.transfer_date, stock_transfers.id) < (?, ?)", ts, cursor.ID)
		}
		query = query.Order("stock_transfers.transfer_date DESC, stock_transfers.id DESC")
	case pagination.KindID:
		if !cursor.IsZero() {
			id, err := cursor.Uint()
			if err != nil {
				return nil, err
			}
			query = query.Where("stock_transfers.id > ?", id)
		}
		query = query.Order("stock_transfers.id ASC")
	default:
		return nil, pagination.ErrInvalidCursor
	}

	var models []TransferModel
	if err := query.Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询转移列表失败")
	}

	return toTransferEntities(models), nil
}

// ListByDrug 查询某药品的全部转移记录
func (r *transferRepository) ListByDrug(ctx context.Context, drugID uint) ([]*transfer.Transfer, error) {
	var models []TransferModel
	err := r.db.WithContext(ctx).
		Joins("Drug").
		Joins("Actor").
		Where("stock_transfers.drug_id = ?", drugID).
		Order("stock_transfers.transfer_date DESC, stock_transfers.id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询药品转移记录失败")
	}

	return toTransferEntities(models), nil
}

// toTransferEntity GORM模型 → 领域实体
func toTransferEntity(model *TransferModel) *transfer.Transfer {
	t := &transfer.Transfer{
		ID:              model.ID,
		DrugID:          model.DrugID,
		SourceWard:      model.SourceWard,
		DestinationWard: model.DestinationWard,
		Quantity:        model.Quantity,
		ActorID:         model.ActorID,
		TransferDate:    model.TransferDate,
	}

	if model.Drug.ID != 0 {
		t.Drug = toDrugEntity(&model.Drug)
	}
	if model.Actor.ID != 0 {
		t.Actor = toUserEntity(&model.Actor)
	}

	return t
}

func toTransferEntities(models []TransferModel) []*transfer.Transfer {
	transfers := make([]*transfer.Transfer, len(models))
	for i := range models {
		transfers[i] = toTransferEntity(&models[i])
	}
	return transfers
}
