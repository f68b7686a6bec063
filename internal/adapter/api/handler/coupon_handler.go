package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"plantio/internal/usecase"
	"plantio/pkg/response"
)

type CouponHandler struct {
	couponUseCase *usecase.CouponUseCase
}

func NewCouponHandler(couponUseCase *usecase.CouponUseCase) *CouponHandler {
	return &CouponHandler{
		couponUseCase: couponUseCase,
	}
}

type createCouponRequest struct {
	Code            string  `json:"code" validate:"required"`
	Description     string  `json:"description"`
	DiscountPercent float64 `json:"discount_percent" validate:"required,gt=0,lte=100"`
	MaxUses         int     `json:"max_uses" validate:"gte=0"`
	ExpiresAt       string  `json:"expires_at"`
}

type redeemCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	var req createCouponRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.CreateCouponInput{
		Code:            req.Code,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		MaxUses:         req.MaxUses,
	}

	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return response.Error(c, err)
		}
		input.ExpiresAt = expiresAt
	}

	coupon, err := h.couponUseCase.CreateCoupon(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, coupon)
}

func (h *CouponHandler) ListCoupons(c echo.Context) error {
	coupons, err := h.couponUseCase.ListCoupons(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, coupons)
}

func (h *CouponHandler) GetCoupon(c echo.Context) error {
	coupon, err := h.couponUseCase.GetCoupon(c.Request().Context(), c.Param("code"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, coupon)
}

func (h *CouponHandler) RedeemCoupon(c echo.Context) error {
	var req redeemCouponRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	coupon, err := h.couponUseCase.RedeemCoupon(c.Request().Context(), userID, req.Code)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, coupon)
}
