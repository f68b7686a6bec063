package router

import (
	"time"

	"github.com/labstack/echo/v4"

	"plantio/internal/adapter/api/handler"
	"plantio/internal/adapter/api/middleware"
)

// SetupCouponRouter wires the coupon routes. Redemption additionally gets an
// IP throttle since coupon codes are guessable.
func SetupCouponRouter(e *echo.Echo, couponHandler *handler.CouponHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	coupons := e.Group("/v1/coupons")
	coupons.Use(authMiddleware.Authenticate)

	coupons.GET("", couponHandler.ListCoupons)
	coupons.GET("/:code", couponHandler.GetCoupon)

	redeemLimiter := middleware.NewIPRateLimiter(10, time.Minute)
	coupons.POST("/redeem", couponHandler.RedeemCoupon, redeemLimiter.Middleware())

	adminCoupons := e.Group("/v1/admin/coupons")
	adminCoupons.Use(authMiddleware.Authenticate)
	adminCoupons.Use(adminMiddleware.AdminOnly)

	adminCoupons.POST("", couponHandler.CreateCoupon)
	adminCoupons.GET("", couponHandler.ListCoupons)
}
