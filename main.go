package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groundandgrow/config"
	"groundandgrow/database"
	availabilityRepo "groundandgrow/database/repository/availability"
	bookingRepo "groundandgrow/database/repository/booking"
	messageRepo "groundandgrow/database/repository/message"
	notificationRepo "groundandgrow/database/repository/notification"
	psychRepo "groundandgrow/database/repository/psychologist"
	sessionTypeRepo "groundandgrow/database/repository/sessiontype"
	timeoffRepo "groundandgrow/database/repository/timeoff"
	"groundandgrow/handlers"
	"groundandgrow/routes"
	"groundandgrow/services/availability"
	"groundandgrow/services/booking"
	"groundandgrow/services/message"
	"groundandgrow/services/notification"
	"groundandgrow/services/notification/delivery"
	"groundandgrow/services/payment"
	"groundandgrow/services/psychologist"
	"groundandgrow/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitRedis()

	bookings := bookingRepo.NewMongoBookingRepo()
	availabilities := availabilityRepo.NewMongoAvailabilityRepo()
	timeOff := timeoffRepo.NewMongoTimeOffRepo()
	notifications := notificationRepo.NewMongoNotificationRepo()
	psychologists := psychRepo.NewMongoPsychologistRepo()
	sessionTypes := sessionTypeRepo.NewMongoSessionTypeRepo()
	messages := messageRepo.NewMongoMessageRepo()

	ensureIndexes(logger,
		bookings.EnsureIndexes,
		availabilities.EnsureIndexes,
		timeOff.EnsureIndexes,
		notifications.EnsureIndexes,
		psychologists.EnsureIndexes,
		sessionTypes.EnsureIndexes,
		messages.EnsureIndexes,
	)

	engine := &availability.Engine{
		Windows:  availabilities,
		TimeOff:  timeOff,
		Bookings: bookings,
	}
	management := &availability.Management{Engine: engine}

	notificationService := notification.NewNotificationService(
		notifications,
		time.Duration(config.AppConfig.ReminderLeadHours)*time.Hour,
	)

	gateway := payment.NewStripeGateway()

	bookingService := &booking.Service{
		Bookings:      bookings,
		Psychologists: psychologists,
		SessionTypes:  sessionTypes,
		Availability:  engine,
		Payments:      gateway,
		Notifications: notificationService,
		NoticePeriod:  time.Duration(config.AppConfig.CancellationNoticeHours) * time.Hour,
	}

	messageService := &message.Service{
		Messages:      messages,
		Notifications: notificationService,
	}

	psychService := &psychologist.Service{
		Psychologists: psychologists,
		Bookings:      bookings,
		Messages:      messageService,
	}

	var emailSender delivery.EmailSender
	if config.AppConfig.EmailEnabled {
		emailSender = delivery.NewSendGridSender()
	}
	var smsSender delivery.SMSSender
	if config.AppConfig.SMSEnabled {
		smsSender = delivery.NewTwilioSender()
	}
	sweeper := notification.NewSweeper(
		notifications,
		emailSender,
		smsSender,
		time.Duration(config.AppConfig.SweepIntervalSecs)*time.Second,
		config.AppConfig.MaxDeliveryRetries,
		time.Duration(config.AppConfig.RetryBackoffMins)*time.Minute,
	)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()},
		database.MongoClient,
		notifications.CountPending,
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.AppConfig.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Register(router, &routes.Handlers{
		Booking:      handlers.NewBookingHandler(bookingService),
		Availability: handlers.NewAvailabilityHandler(engine, management, sessionTypes),
		Psychologist: handlers.NewPsychologistHandler(psychService, bookingService, notificationService),
		Message:      handlers.NewMessageHandler(messageService, bookingService, psychService),
		Webhook:      handlers.NewWebhookHandler(gateway, bookingService),
	}, psychologists)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", config.AppConfig.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func ensureIndexes(logger *zap.Logger, fns ...func() error) {
	for _, fn := range fns {
		if err := fn(); err != nil {
			logger.Fatal("failed to ensure indexes", zap.Error(err))
		}
	}
}
