package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/cancel_booking"
	checkAvailabilityHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/check_availability"
	createHoldHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_hold"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_user_bookings"
	initiatePaymentHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/initiate_payment"
	reconcilePaymentHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/reconcile_payment"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/api/signature"
	"github.com/m04kA/SMC-RentalService/internal/config"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
	"github.com/m04kA/SMC-RentalService/internal/infra/events/rabbitmq"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	carRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/car"
	paymentRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/payment"
	bookingsService "github.com/m04kA/SMC-RentalService/internal/service/bookings"
	"github.com/m04kA/SMC-RentalService/internal/service/conflict"
	"github.com/m04kA/SMC-RentalService/internal/service/sweeper"
	checkAvailabilityUC "github.com/m04kA/SMC-RentalService/internal/usecase/check_availability"
	createHoldUC "github.com/m04kA/SMC-RentalService/internal/usecase/create_hold"
	initiatePaymentUC "github.com/m04kA/SMC-RentalService/internal/usecase/initiate_payment"
	reconcilePaymentUC "github.com/m04kA/SMC-RentalService/internal/usecase/reconcile_payment"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-RentalService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Подключаемся к RabbitMQ (если включен)
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQ.Enabled {
		conn, err := rabbitmq.Connect(rabbitmq.Config{
			Host:     cfg.RabbitMQ.Host,
			Port:     cfg.RabbitMQ.Port,
			User:     cfg.RabbitMQ.User,
			Password: cfg.RabbitMQ.Password,
		})
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		defer conn.Close()

		publisher, err = rabbitmq.NewPublisher(conn)
		if err != nil {
			log.Fatal("Failed to initialize RabbitMQ publisher: %v", err)
		}
		log.Info("RabbitMQ publisher initialized (host=%s, port=%d)", cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	} else {
		log.Info("RabbitMQ disabled, booking events will not be published")
	}

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		carRepository     *carRepo.Repository
		paymentRepository *paymentRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	// Метрики движка: заглушка, если сбор выключен
	var engineMetrics interface {
		IncHoldCreated(payMode string)
		IncHoldConflict()
		IncReconcile(outcome string)
		IncConflictAfterPayment()
		AddStaleHoldsExpired(n int)
	} = metrics.Noop{}

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		carRepository = carRepo.NewRepository(wrappedDB)
		paymentRepository = paymentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
		engineMetrics = metricsCollector
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		carRepository = carRepo.NewRepository(db)
		paymentRepository = paymentRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	timeProvider := &bookingsService.RealTimeProvider{}

	// Инициализируем сервисы
	detector := conflict.NewDetector(bookingRepository)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		carRepository,
		timeProvider,
		log,
	)

	// Инициализируем use cases
	createHoldUseCase := createHoldUC.NewUseCase(
		bookingRepository,
		carRepository,
		paymentRepository,
		detector,
		txMgr,
		log,
		engineMetrics,
	)
	reconcilePaymentUseCase := reconcilePaymentUC.NewUseCase(
		paymentRepository,
		bookingRepository,
		carRepository,
		detector,
		txMgr,
		publisher,
		log,
		engineMetrics,
	)
	initiatePaymentUseCase := initiatePaymentUC.NewUseCase(bookingRepository, paymentRepository, log)
	checkAvailabilityUseCase := checkAvailabilityUC.NewUseCase(detector, log)

	// Запускаем свипер просроченных холдов
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	holdSweeper := sweeper.New(
		bookingRepository,
		carRepository,
		publisher,
		timeProvider,
		log,
		engineMetrics,
		cfg.Engine.SweepInterval(),
	)
	go holdSweeper.Run(sweeperCtx)

	// Инициализируем handlers
	createHold := createHoldHandler.NewHandler(createHoldUseCase, log)
	reconcilePayment := reconcilePaymentHandler.NewHandler(reconcilePaymentUseCase, log)
	initiatePayment := initiatePaymentHandler.NewHandler(initiatePaymentUseCase, log)
	checkAvailability := checkAvailabilityHandler.NewHandler(checkAvailabilityUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Предварительная проверка доступности автомобиля
	api.HandleFunc("/cars/{carId}/availability", checkAvailability.Handle).Methods(http.MethodGet)

	// ============================================================
	// WEBHOOK ROUTES (подпись платежного провайдера)
	// ============================================================

	webhooks := api.PathPrefix("").Subrouter()
	webhooks.Use(middleware.WebhookSignature(signature.NewHMACVerifier(cfg.Engine.WebhookSecret)))

	// Вебхук сверки платежа
	webhooks.HandleFunc("/payments/reconcile", reconcilePayment.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание холда
	protected.HandleFunc("/bookings/hold", createHold.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Инициация доплаты или полной оплаты
	protected.HandleFunc("/bookings/{bookingId}/payments", initiatePayment.Handle).Methods(http.MethodPost)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем свипер
	stopSweeper()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
