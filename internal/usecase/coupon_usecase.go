package usecase

import (
	"context"
	"log"
	"time"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/pkg/errors"
)

type CouponUseCase struct {
	couponRepo repository.CouponRepository
}

func NewCouponUseCase(couponRepo repository.CouponRepository) *CouponUseCase {
	return &CouponUseCase{
		couponRepo: couponRepo,
	}
}

type CreateCouponInput struct {
	Code            string    `json:"code" validate:"required"`
	Description     string    `json:"description,omitempty"`
	DiscountPercent float64   `json:"discount_percent" validate:"required,gt=0,lte=100"`
	MaxUses         int       `json:"max_uses,omitempty" validate:"gte=0"`
	ExpiresAt       time.Time `json:"expires_at,omitempty"`
}

func (uc *CouponUseCase) CreateCoupon(ctx context.Context, input CreateCouponInput) (*entity.Coupon, error) {
	if _, err := uc.couponRepo.GetByCode(ctx, input.Code); err == nil {
		return nil, errors.Conflict("Coupon code already exists")
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	coupon := &entity.Coupon{
		Code:            input.Code,
		Description:     input.Description,
		DiscountPercent: input.DiscountPercent,
		MaxUses:         input.MaxUses,
		ExpiresAt:       input.ExpiresAt,
		Active:          true,
	}

	if err := uc.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	log.Printf("Coupon %s created (%.0f%% off)", coupon.Code, coupon.DiscountPercent)
	return coupon, nil
}

func (uc *CouponUseCase) ListCoupons(ctx context.Context) ([]*entity.Coupon, error) {
	return uc.couponRepo.List(ctx)
}

func (uc *CouponUseCase) GetCoupon(ctx context.Context, code string) (*entity.Coupon, error) {
	return uc.couponRepo.GetByCode(ctx, code)
}

// RedeemCoupon validates and consumes one use of a coupon. The check and
// the increment run inside the repository transaction so concurrent
// redemptions cannot exceed the usage limit.
func (uc *CouponUseCase) RedeemCoupon(ctx context.Context, userID, code string) (*entity.Coupon, error) {
	coupon, err := uc.couponRepo.Redeem(ctx, code)
	if err != nil {
		return nil, err
	}

	log.Printf("Coupon %s redeemed by %s (use %d)", coupon.Code, userID, coupon.UsedCount)
	return coupon, nil
}
