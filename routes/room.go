package routes

import (
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/utils"
)

// RoomHandler covers the housekeeping side of room status: bookings set
// occupied/dirty, housekeeping sets everything else.
type RoomHandler struct {
	db *gorm.DB
}

func NewRoomHandler(db *gorm.DB) *RoomHandler {
	return &RoomHandler{db: db}
}

func (h *RoomHandler) List(ctx iris.Context) {
	query := h.db.Preload("RatePlan").Where("tenant_id = ?", utils.TenantID(ctx))
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if roomType := ctx.URLParam("type"); roomType != "" {
		query = query.Where("type = ?", roomType)
	}

	var rooms []models.Room
	if err := query.Order("room_number").Find(&rooms).Error; err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, rooms)
}

type UpdateRoomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available clean dirty out_of_order maintenance"`
}

// UpdateStatus handles housekeeping transitions. Occupied is deliberately
// not accepted here; only a check-in can occupy a room.
func (h *RoomHandler) UpdateStatus(ctx iris.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		return
	}

	var request UpdateRoomStatusRequest
	if err := ctx.ReadJSON(&request); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var room models.Room
	if err := h.db.Where("tenant_id = ?", utils.TenantID(ctx)).First(&room, id).Error; err != nil {
		utils.Fail(ctx, iris.StatusNotFound, "room not found")
		return
	}

	before := room.Status
	if err := h.db.Model(&room).Update("status", request.Status).Error; err != nil {
		respondServiceError(ctx, err)
		return
	}
	room.Status = request.Status

	utils.Audit(ctx, h.db, "room.status", "room", room.ID,
		iris.Map{"status": before}, iris.Map{"status": request.Status})
	utils.Success(ctx, room)
}
