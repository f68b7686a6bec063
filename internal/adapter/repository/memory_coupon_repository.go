package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/pkg/errors"
)

type memoryCouponRepository struct {
	mu      sync.Mutex
	coupons map[string]*entity.Coupon // keyed by code
}

func NewMemoryCouponRepository() repository.CouponRepository {
	return &memoryCouponRepository{
		coupons: make(map[string]*entity.Coupon),
	}
}

func (r *memoryCouponRepository) Create(ctx context.Context, coupon *entity.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}

	now := time.Now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *coupon
	r.coupons[coupon.Code] = &copied

	return nil
}

func (r *memoryCouponRepository) GetByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return nil, errors.NotFound("Coupon", nil)
	}

	copied := *coupon
	return &copied, nil
}

func (r *memoryCouponRepository) List(ctx context.Context) ([]*entity.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var coupons []*entity.Coupon
	for _, coupon := range r.coupons {
		copied := *coupon
		coupons = append(coupons, &copied)
	}

	sort.SliceStable(coupons, func(i, j int) bool {
		return coupons[i].CreatedAt.After(coupons[j].CreatedAt)
	})

	return coupons, nil
}

func (r *memoryCouponRepository) Redeem(ctx context.Context, code string) (*entity.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return nil, errors.NotFound("Coupon", nil)
	}

	if !coupon.Active {
		return nil, errors.BadRequest("Coupon is not active", nil)
	}
	if !coupon.ExpiresAt.IsZero() && coupon.ExpiresAt.Before(time.Now()) {
		return nil, errors.BadRequest("Coupon has expired", nil)
	}
	if coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses {
		return nil, errors.Conflict("Coupon usage limit reached")
	}

	coupon.UsedCount++
	coupon.UpdatedAt = time.Now()

	copied := *coupon
	return &copied, nil
}
