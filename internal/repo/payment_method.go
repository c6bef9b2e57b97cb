package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	return translate(r.DB.WithContext(ctx).Create(pm).Error)
}

func (r *GormRepo) GetPaymentMethod(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, translate(err)
	}
	return &pm, nil
}

func (r *GormRepo) ListPaymentMethods(ctx context.Context, userID uint) ([]models.PaymentMethod, error) {
	items := []models.PaymentMethod{}
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *GormRepo) DeletePaymentMethod(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.PaymentMethod{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
