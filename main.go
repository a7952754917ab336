package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/KachiAlex/innsight-sub005/models"
	"github.com/KachiAlex/innsight-sub005/payments"
	"github.com/KachiAlex/innsight-sub005/routes"
	"github.com/KachiAlex/innsight-sub005/services"
	"github.com/KachiAlex/innsight-sub005/storage"
	"github.com/KachiAlex/innsight-sub005/utils"
)

func main() {
	godotenv.Load()

	db, err := storage.Connect(os.Getenv("DB_CONNECTION_STRING"))
	if err != nil {
		log.Fatal(err)
	}
	redisClient := storage.NewRedis(os.Getenv("REDIS_URL"))

	registry := payments.NewRegistry(&http.Client{Timeout: 15 * time.Second}, map[string]payments.Credentials{
		models.GatewayPaystack: {
			PublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
			SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		},
		models.GatewayFlutterwave: {
			PublicKey: os.Getenv("FLUTTERWAVE_PUBLIC_KEY"),
			SecretKey: os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		},
		models.GatewayStripe: {
			PublicKey: os.Getenv("STRIPE_PUBLIC_KEY"),
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		},
	})

	notifier := services.NewLogNotifier()
	ledger := services.NewLedgerService(db)
	availability := services.NewAvailabilityService(db)
	booking := services.NewBookingService(db, ledger, notifier)
	groups := services.NewGroupBookingService(db, booking, notifier)
	settings := services.NewSettingsService(db, redisClient)
	reconciliation := services.NewReconciliationService(db, registry, settings, ledger)

	availabilityHandler := routes.NewAvailabilityHandler(availability)
	reservationHandler := routes.NewReservationHandler(db, booking)
	groupHandler := routes.NewGroupBookingHandler(db, groups)
	paymentHandler := routes.NewPaymentHandler(db, reconciliation, ledger)
	roomHandler := routes.NewRoomHandler(db)
	settingsHandler := routes.NewSettingsHandler(db, settings)

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})
	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	api := app.Party("/api", accessTokenVerifierMiddleware, utils.TenantMiddleware)
	{
		api.Post("/availability/search", availabilityHandler.Search)

		reservation := api.Party("/reservations")
		{
			reservation.Get("", reservationHandler.List)
			reservation.Post("", reservationHandler.Create)
			reservation.Get("/{id}", reservationHandler.Get)
			reservation.Post("/{id}/check-in", reservationHandler.CheckIn)
			reservation.Post("/{id}/check-out", reservationHandler.CheckOut)
			reservation.Post("/{id}/cancel", reservationHandler.Cancel)
		}

		group := api.Party("/group-bookings")
		{
			group.Post("", groupHandler.Create)
			group.Get("/{id}", groupHandler.Get)
			group.Post("/{id}/check-in", groupHandler.CheckIn)
			group.Post("/{id}/check-out", groupHandler.CheckOut)
			group.Post("/{id}/cancel", groupHandler.Cancel)
		}

		payment := api.Party("/payments")
		{
			payment.Post("/initialize", paymentHandler.Initialize)
			payment.Get("/verify/{reference}", paymentHandler.Verify)
			payment.Post("/manual", paymentHandler.RecordManual)
		}

		folio := api.Party("/folios")
		{
			folio.Get("/{id}", paymentHandler.GetFolio)
			folio.Post("/charges", paymentHandler.PostCharge)
		}

		room := api.Party("/rooms")
		{
			room.Get("", roomHandler.List)
			room.Patch("/{id}/status", roomHandler.UpdateStatus)
		}

		api.Get("/settings/payments", settingsHandler.GetPaymentSettings)
		api.Put("/settings/payments", settingsHandler.UpdatePaymentSettings)
	}

	// Gateways call back unauthenticated; tenant identity rides in the
	// echoed metadata.
	app.Post("/api/webhooks/payments/{gateway}", paymentHandler.Webhook)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("innsight server listening on port", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
