package routes

import (
	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/utils"
)

type GroupBookingHandler struct {
	db     *gorm.DB
	groups *services.GroupBookingService
}

func NewGroupBookingHandler(db *gorm.DB, groups *services.GroupBookingService) *GroupBookingHandler {
	return &GroupBookingHandler{db: db, groups: groups}
}

type GroupRoomRequest struct {
	RoomID uint     `json:"roomID" validate:"required"`
	Rate   *float64 `json:"rate" validate:"omitempty,gt=0"`
}

type CreateGroupBookingRequest struct {
	GuestName  string             `json:"guestName" validate:"required"`
	GuestEmail string             `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone string             `json:"guestPhone"`
	CheckIn    string             `json:"checkIn" validate:"required"`
	CheckOut   string             `json:"checkOut" validate:"required"`
	Adults     int                `json:"adults" validate:"min=0"`
	Children   int                `json:"children" validate:"min=0"`
	Rooms      []GroupRoomRequest `json:"rooms" validate:"required,min=1,dive"`
}

func (h *GroupBookingHandler) Create(ctx iris.Context) {
	var request CreateGroupBookingRequest
	if err := ctx.ReadJSON(&request); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, err := parseDate(request.CheckIn)
	if err != nil {
		utils.Fail(ctx, iris.StatusBadRequest, "checkIn must be a YYYY-MM-DD date")
		return
	}
	checkOut, err := parseDate(request.CheckOut)
	if err != nil {
		utils.Fail(ctx, iris.StatusBadRequest, "checkOut must be a YYYY-MM-DD date")
		return
	}

	input := services.CreateGroupBookingInput{
		GuestName:  request.GuestName,
		GuestEmail: request.GuestEmail,
		GuestPhone: request.GuestPhone,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     request.Adults,
		Children:   request.Children,
		CreatedBy:  utils.UserID(ctx),
	}
	for _, room := range request.Rooms {
		roomInput := services.GroupRoomInput{RoomID: room.RoomID}
		if room.Rate != nil {
			rate := decimal.NewFromFloat(*room.Rate)
			roomInput.Rate = &rate
		}
		input.Rooms = append(input.Rooms, roomInput)
	}

	group, err := h.groups.CreateGroupBooking(utils.TenantID(ctx), input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "group_booking.create", "group_booking", group.ID, nil, group)
	ctx.StatusCode(iris.StatusCreated)
	utils.Success(ctx, group)
}

func (h *GroupBookingHandler) Get(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	group, err := h.groups.GetGroupBooking(utils.TenantID(ctx), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, group)
}

func (h *GroupBookingHandler) CheckIn(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	result, err := h.groups.CheckIn(utils.TenantID(ctx), id, utils.UserID(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "group_booking.check_in", "group_booking", id, nil, result.Group)
	utils.Success(ctx, result)
}

func (h *GroupBookingHandler) CheckOut(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	result, err := h.groups.CheckOut(utils.TenantID(ctx), id, utils.UserID(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "group_booking.check_out", "group_booking", id, nil, result.Group)
	utils.Success(ctx, result)
}

func (h *GroupBookingHandler) Cancel(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	group, err := h.groups.Cancel(utils.TenantID(ctx), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "group_booking.cancel", "group_booking", group.ID, nil, group)
	utils.Success(ctx, group)
}
