package routes

import (
	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/utils"
)

type ReservationHandler struct {
	db      *gorm.DB
	booking *services.BookingService
}

func NewReservationHandler(db *gorm.DB, booking *services.BookingService) *ReservationHandler {
	return &ReservationHandler{db: db, booking: booking}
}

type CreateReservationRequest struct {
	RoomID     uint     `json:"roomID" validate:"required"`
	GuestName  string   `json:"guestName" validate:"required"`
	GuestEmail string   `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone string   `json:"guestPhone"`
	CheckIn    string   `json:"checkIn" validate:"required"`
	CheckOut   string   `json:"checkOut" validate:"required"`
	Adults     int      `json:"adults" validate:"min=0"`
	Children   int      `json:"children" validate:"min=0"`
	Rate       *float64 `json:"rate" validate:"omitempty,gt=0"`
}

func (h *ReservationHandler) Create(ctx iris.Context) {
	var request CreateReservationRequest
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

	input := services.CreateReservationInput{
		RoomID:     request.RoomID,
		GuestName:  request.GuestName,
		GuestEmail: request.GuestEmail,
		GuestPhone: request.GuestPhone,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     request.Adults,
		Children:   request.Children,
		CreatedBy:  utils.UserID(ctx),
	}
	if request.Rate != nil {
		rate := decimal.NewFromFloat(*request.Rate)
		input.Rate = &rate
	}

	reservation, err := h.booking.CreateReservation(utils.TenantID(ctx), input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "reservation.create", "reservation", reservation.ID, nil, reservation)
	ctx.StatusCode(iris.StatusCreated)
	utils.Success(ctx, reservation)
}

func (h *ReservationHandler) List(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("perPage", 20)
	status := ctx.URLParam("status")

	reservations, total, err := h.booking.ListReservations(utils.TenantID(ctx), status, page, perPage)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, reservations, page, perPage, total)
}

func (h *ReservationHandler) Get(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	reservation, err := h.booking.GetReservation(utils.TenantID(ctx), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, reservation)
}

func (h *ReservationHandler) CheckIn(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	reservation, err := h.booking.CheckIn(utils.TenantID(ctx), id, utils.UserID(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "reservation.check_in", "reservation", reservation.ID, nil, reservation)
	utils.Success(ctx, reservation)
}

func (h *ReservationHandler) CheckOut(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	reservation, err := h.booking.CheckOut(utils.TenantID(ctx), id, utils.UserID(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "reservation.check_out", "reservation", reservation.ID, nil, reservation)
	utils.Success(ctx, reservation)
}

func (h *ReservationHandler) Cancel(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	reservation, err := h.booking.Cancel(utils.TenantID(ctx), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Audit(ctx, h.db, "reservation.cancel", "reservation", reservation.ID, nil, reservation)
	utils.Success(ctx, reservation)
}
