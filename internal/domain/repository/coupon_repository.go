package repository

import (
	"context"

	"plantio/internal/domain/entity"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *entity.Coupon) error
	GetByCode(ctx context.Context, code string) (*entity.Coupon, error)
	List(ctx context.Context) ([]*entity.Coupon, error)

	// Redeem increments the coupon's usage count inside a single
	// read-check-write transaction: the increment is rejected when the
	// coupon is inactive, expired, or already at its usage limit.
	Redeem(ctx context.Context, code string) (*entity.Coupon, error)
}
