package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantio/internal/adapter/repository"
	"plantio/pkg/errors"
)

func newTestCouponUseCase() *CouponUseCase {
	return NewCouponUseCase(repository.NewMemoryCouponRepository())
}

func TestCreateCoupon(t *testing.T) {
	uc := newTestCouponUseCase()
	ctx := context.Background()

	coupon, err := uc.CreateCoupon(ctx, CreateCouponInput{
		Code:            "SPRING10",
		Description:     "10% off spring collection",
		DiscountPercent: 10,
		MaxUses:         100,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, coupon.ID)
	assert.True(t, coupon.Active)
	assert.Zero(t, coupon.UsedCount)
}

func TestCreateCouponDuplicateCode(t *testing.T) {
	uc := newTestCouponUseCase()
	ctx := context.Background()

	_, err := uc.CreateCoupon(ctx, CreateCouponInput{Code: "SPRING10", DiscountPercent: 10})
	require.NoError(t, err)

	_, err = uc.CreateCoupon(ctx, CreateCouponInput{Code: "SPRING10", DiscountPercent: 15})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestRedeemCouponIncrementsUsage(t *testing.T) {
	uc := newTestCouponUseCase()
	ctx := context.Background()

	_, err := uc.CreateCoupon(ctx, CreateCouponInput{Code: "FERN5", DiscountPercent: 5, MaxUses: 2})
	require.NoError(t, err)

	redeemed, err := uc.RedeemCoupon(ctx, "customer-1", "FERN5")
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.UsedCount)

	redeemed, err = uc.RedeemCoupon(ctx, "customer-2", "FERN5")
	require.NoError(t, err)
	assert.Equal(t, 2, redeemed.UsedCount)

	_, err = uc.RedeemCoupon(ctx, "customer-3", "FERN5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestRedeemCouponUnlimitedUses(t *testing.T) {
	uc := newTestCouponUseCase()
	ctx := context.Background()

	_, err := uc.CreateCoupon(ctx, CreateCouponInput{Code: "EVERGREEN", DiscountPercent: 5})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := uc.RedeemCoupon(ctx, "customer-1", "EVERGREEN")
		require.NoError(t, err)
	}
}

func TestRedeemCouponExpired(t *testing.T) {
	uc := newTestCouponUseCase()
	ctx := context.Background()

	_, err := uc.CreateCoupon(ctx, CreateCouponInput{
		Code:            "BYGONE",
		DiscountPercent: 20,
		ExpiresAt:       time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = uc.RedeemCoupon(ctx, "customer-1", "BYGONE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestRedeemCouponUnknownCode(t *testing.T) {
	uc := newTestCouponUseCase()

	_, err := uc.RedeemCoupon(context.Background(), "customer-1", "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
