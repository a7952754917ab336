package routes

import (
	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"

	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/utils"
)

type AvailabilityHandler struct {
	availability *services.AvailabilityService
}

func NewAvailabilityHandler(availability *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

type AvailabilitySearchInput struct {
	CheckIn           string   `json:"checkIn" validate:"required"`
	CheckOut          string   `json:"checkOut" validate:"required"`
	RoomType          string   `json:"roomType"`
	Category          string   `json:"category"`
	Floor             *int     `json:"floor"`
	MinOccupancy      int      `json:"minOccupancy"`
	RatePlanID        *uint    `json:"ratePlanID"`
	MinRate           *float64 `json:"minRate"`
	MaxRate           *float64 `json:"maxRate"`
	IncludeOutOfOrder bool     `json:"includeOutOfOrder"`
}

func (h *AvailabilityHandler) Search(ctx iris.Context) {
	var input AvailabilitySearchInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, err := parseDate(input.CheckIn)
	if err != nil {
		utils.Fail(ctx, iris.StatusBadRequest, "checkIn must be a YYYY-MM-DD date")
		return
	}
	checkOut, err := parseDate(input.CheckOut)
	if err != nil {
		utils.Fail(ctx, iris.StatusBadRequest, "checkOut must be a YYYY-MM-DD date")
		return
	}

	filters := services.AvailabilityFilters{
		RoomType:          input.RoomType,
		Category:          input.Category,
		Floor:             input.Floor,
		MinOccupancy:      input.MinOccupancy,
		RatePlanID:        input.RatePlanID,
		IncludeOutOfOrder: input.IncludeOutOfOrder,
	}
	if input.MinRate != nil {
		minRate := decimal.NewFromFloat(*input.MinRate)
		filters.MinRate = &minRate
	}
	if input.MaxRate != nil {
		maxRate := decimal.NewFromFloat(*input.MaxRate)
		filters.MaxRate = &maxRate
	}

	result, err := h.availability.FindAvailable(utils.TenantID(ctx), checkIn, checkOut, filters)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}
