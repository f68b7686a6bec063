package repository

import (
	"context"
	stderrors "errors"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/pkg/errors"
)

type firestoreCouponRepository struct {
	client *firestore.Client
}

func NewFirestoreCouponRepository(client *firestore.Client) repository.CouponRepository {
	return &firestoreCouponRepository{
		client: client,
	}
}

func (r *firestoreCouponRepository) Create(ctx context.Context, coupon *entity.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}

	now := time.Now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	_, err := r.client.Collection("coupons").Doc(coupon.ID).Set(ctx, coupon)
	if err != nil {
		return errors.Internal("Failed to create coupon", err)
	}

	return nil
}

func (r *firestoreCouponRepository) GetByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	iter := r.client.Collection("coupons").Where("code", "==", code).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Coupon", nil)
		}
		return nil, errors.Internal("Failed to query coupon", err)
	}

	var coupon entity.Coupon
	if err := doc.DataTo(&coupon); err != nil {
		return nil, errors.Internal("Failed to parse coupon data", err)
	}

	return &coupon, nil
}

func (r *firestoreCouponRepository) List(ctx context.Context) ([]*entity.Coupon, error) {
	docs, err := r.client.Collection("coupons").OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch coupons", err)
	}

	var coupons []*entity.Coupon
	for _, doc := range docs {
		var coupon entity.Coupon
		if err := doc.DataTo(&coupon); err != nil {
			log.Printf("Error parsing coupon data: %v", err)
			continue
		}
		coupons = append(coupons, &coupon)
	}

	return coupons, nil
}

// Redeem runs the read-check-increment as one optimistic transaction so two
// concurrent redemptions cannot both pass the usage-limit check.
func (r *firestoreCouponRepository) Redeem(ctx context.Context, code string) (*entity.Coupon, error) {
	existing, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	docRef := r.client.Collection("coupons").Doc(existing.ID)

	var redeemed entity.Coupon
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var coupon entity.Coupon
		if err := doc.DataTo(&coupon); err != nil {
			return err
		}

		if !coupon.Active {
			return errors.BadRequest("Coupon is not active", nil)
		}
		if !coupon.ExpiresAt.IsZero() && coupon.ExpiresAt.Before(time.Now()) {
			return errors.BadRequest("Coupon has expired", nil)
		}
		if coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses {
			return errors.Conflict("Coupon usage limit reached")
		}

		coupon.UsedCount++
		coupon.UpdatedAt = time.Now()
		redeemed = coupon

		return tx.Set(docRef, &coupon)
	})

	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to redeem coupon", err)
	}

	return &redeemed, nil
}
