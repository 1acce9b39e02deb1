package repository

import (
	"context"

	"github.com/blues/civicops/internal/model"
	"gorm.io/gorm"
)

// GormApprovalRepo 基于 gorm 的审批单存储
type GormApprovalRepo struct {
	db *gorm.DB
}

// NewGormApprovalRepo 创建 gorm 审批单存储
func NewGormApprovalRepo(db *gorm.DB) *GormApprovalRepo {
	return &GormApprovalRepo{db: db}
}

func (r *GormApprovalRepo) Create(ctx context.Context, a *model.ApprovalModel) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error, "creating approval %s", a.Id)
}

func (r *GormApprovalRepo) GetByID(ctx context.Context, id string) (*model.ApprovalModel, error) {
	var a model.ApprovalModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err, "getting approval %s", id)
	}
	return &a, nil
}

func (r *GormApprovalRepo) List(ctx context.Context, filter ApprovalFilter) ([]*model.ApprovalModel, error) {
	query := r.db.WithContext(ctx).Model(&model.ApprovalModel{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var list []*model.ApprovalModel
	if err := query.Order("submitted_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, translateError(err, "listing approvals")
	}
	return list, nil
}

func (r *GormApprovalRepo) Update(ctx context.Context, a *model.ApprovalModel) error {
	result := r.db.WithContext(ctx).Model(&model.ApprovalModel{}).
		Where("id = ?", a.Id).
		Select("*").
		Updates(a)
	if result.Error != nil {
		return translateError(result.Error, "updating approval %s", a.Id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormApprovalRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.ApprovalModel{}).Count(&n).Error; err != nil {
		return 0, translateError(err, "counting approvals")
	}
	return n, nil
}
