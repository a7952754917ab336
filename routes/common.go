package routes

import (
	"log"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/utils"
)

const dateLayout = "2006-01-02"

// respondServiceError translates the engine error taxonomy into the HTTP
// envelope. Internal detail never reaches the caller.
func respondServiceError(ctx iris.Context, err error) {
	switch services.KindOf(err) {
	case services.KindValidation, services.KindBusinessRule:
		utils.Fail(ctx, iris.StatusBadRequest, err.Error())
	case services.KindNotFound:
		utils.Fail(ctx, iris.StatusNotFound, err.Error())
	case services.KindGateway:
		status := iris.StatusInternalServerError
		if services.CodeOf(err) == services.CodeGatewayNotImplemented {
			status = iris.StatusNotImplemented
		}
		utils.Fail(ctx, status, err.Error())
	default:
		log.Printf("routes: internal error: %v", err)
		utils.Fail(ctx, iris.StatusInternalServerError, "something went wrong")
	}
}

func paramUint(ctx iris.Context, name string) (uint, bool) {
	raw := ctx.Params().Get(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.Fail(ctx, iris.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}
