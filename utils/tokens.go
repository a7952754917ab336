package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// AccessToken is the claim set minted by the auth service. Tenant resolution
// is handled upstream; the booking engines only ever see the ids.
type AccessToken struct {
	ID       uint   `json:"id"`
	TenantID uint   `json:"tenantID"`
	Role     string `json:"role"`
}

// TenantMiddleware copies the token's tenant and user ids into the request
// values for downstream handlers.
func TenantMiddleware(ctx iris.Context) {
	claims, ok := jwt.Get(ctx).(*AccessToken)
	if !ok || claims.TenantID == 0 {
		ctx.StatusCode(iris.StatusUnauthorized)
		ctx.JSON(iris.Map{"success": false, "error": iris.Map{"message": "tenant context missing"}})
		return
	}
	ctx.Values().Set("tenantID", claims.TenantID)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// TenantID returns the tenant id stashed by TenantMiddleware.
func TenantID(ctx iris.Context) uint {
	if id, ok := ctx.Values().Get("tenantID").(uint); ok {
		return id
	}
	return 0
}

// UserID returns the authenticated staff user's id.
func UserID(ctx iris.Context) uint {
	if id, ok := ctx.Values().Get("userID").(uint); ok {
		return id
	}
	return 0
}
