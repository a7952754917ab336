package utils

import (
	"github.com/kataras/iris/v12"
)

type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int64 `json:"total"`
}

func Success(ctx iris.Context, data interface{}) {
	ctx.JSON(iris.Map{"success": true, "data": data})
}

func SuccessPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"success":    true,
		"data":       data,
		"pagination": Pagination{Page: page, PerPage: perPage, Total: total},
	})
}

func Fail(ctx iris.Context, status int, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"success": false, "error": iris.Map{"message": message}})
}
