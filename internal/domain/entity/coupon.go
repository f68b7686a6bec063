package entity

import "time"

type Coupon struct {
	ID              string    `json:"id" firestore:"id"`
	Code            string    `json:"code" firestore:"code"`
	Description     string    `json:"description,omitempty" firestore:"description,omitempty"`
	DiscountPercent float64   `json:"discount_percent" firestore:"discountPercent"`
	MaxUses         int       `json:"max_uses" firestore:"maxUses"` // 0 means unlimited
	UsedCount       int       `json:"used_count" firestore:"usedCount"`
	ExpiresAt       time.Time `json:"expires_at,omitempty" firestore:"expiresAt,omitempty"`
	Active          bool      `json:"active" firestore:"active"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`
}
