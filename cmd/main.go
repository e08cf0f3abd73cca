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

	cancelInvoiceHandler "github.com/aledhemtek/BillingService/internal/api/handlers/cancel_invoice"
	getInvoiceHandler "github.com/aledhemtek/BillingService/internal/api/handlers/get_invoice"
	getPaymentStatisticsHandler "github.com/aledhemtek/BillingService/internal/api/handlers/get_payment_statistics"
	getPendingPaymentsHandler "github.com/aledhemtek/BillingService/internal/api/handlers/get_pending_payments"
	recordPaymentHandler "github.com/aledhemtek/BillingService/internal/api/handlers/record_payment"
	sendInvoiceHandler "github.com/aledhemtek/BillingService/internal/api/handlers/send_invoice"
	updateReservationStatusHandler "github.com/aledhemtek/BillingService/internal/api/handlers/update_reservation_status"
	validatePaymentHandler "github.com/aledhemtek/BillingService/internal/api/handlers/validate_payment"
	"github.com/aledhemtek/BillingService/internal/api/middleware"
	"github.com/aledhemtek/BillingService/internal/config"
	"github.com/aledhemtek/BillingService/internal/domain"
	invoiceRepo "github.com/aledhemtek/BillingService/internal/infra/storage/invoice"
	paymentRepo "github.com/aledhemtek/BillingService/internal/infra/storage/payment"
	reservationRepo "github.com/aledhemtek/BillingService/internal/infra/storage/reservation"
	taskRepo "github.com/aledhemtek/BillingService/internal/infra/storage/task"
	"github.com/aledhemtek/BillingService/internal/integrations/docrender"
	notifierClient "github.com/aledhemtek/BillingService/internal/integrations/notifier"
	"github.com/aledhemtek/BillingService/internal/scheduler"
	invoicesService "github.com/aledhemtek/BillingService/internal/service/invoices"
	paymentsService "github.com/aledhemtek/BillingService/internal/service/payments"
	"github.com/aledhemtek/BillingService/internal/service/pricing"
	generateInvoiceUC "github.com/aledhemtek/BillingService/internal/usecase/generate_invoice"
	updateReservationStatusUC "github.com/aledhemtek/BillingService/internal/usecase/update_reservation_status"
	"github.com/aledhemtek/BillingService/pkg/dbmetrics"
	"github.com/aledhemtek/BillingService/pkg/logger"
	"github.com/aledhemtek/BillingService/pkg/metrics"
	"github.com/aledhemtek/BillingService/pkg/refgen"
	"github.com/aledhemtek/BillingService/pkg/simpletxmanager"
	"github.com/aledhemtek/BillingService/pkg/txmanager"
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

	log.Info("Starting BillingService...")
	log.Info("Configuration loaded from config.toml")

	// Метрики собираются всегда, endpoint поднимается по конфигурации
	metricsCollector := metrics.New(cfg.Metrics.ServiceName)
	stopMetricsCh := make(chan struct{})

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

	// Клиент сервиса уведомлений и генератор документов
	notifier := notifierClient.NewClient(
		cfg.Notifier.URL,
		time.Duration(cfg.Notifier.Timeout)*time.Second,
		log,
	)
	renderer := docrender.NewRenderer()
	log.Info("Notifier client initialized (url=%s, timeout=%ds)", cfg.Notifier.URL, cfg.Notifier.Timeout)

	// Инициализируем репозитории и transaction manager (с метриками или без)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
	}

	var (
		reservationRepository *reservationRepo.Repository
		taskRepository        *taskRepo.Repository
		invoiceRepository     *invoiceRepo.Repository
		paymentRepository     *paymentRepo.Repository
		txMgr                 TxManager
	)

	if cfg.Metrics.Enabled {
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		reservationRepository = reservationRepo.NewRepository(wrappedDB)
		taskRepository = taskRepo.NewRepository(wrappedDB)
		invoiceRepository = invoiceRepo.NewRepository(wrappedDB)
		paymentRepository = paymentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		reservationRepository = reservationRepo.NewRepository(db)
		taskRepository = taskRepo.NewRepository(db)
		invoiceRepository = invoiceRepo.NewRepository(db)
		paymentRepository = paymentRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Генераторы номеров счетов и референсов платежей
	now := time.Now()
	invoiceNumbers := refgen.NewGenerator(domain.InvoiceNumberPrefix, now)
	paymentReferences := refgen.NewGenerator(domain.PaymentReferencePrefix, now)

	// Инициализируем сервисы
	pricingResolver := pricing.NewResolver()
	invoiceSvc := invoicesService.NewService(
		invoiceRepository,
		invoiceNumbers,
		log,
		cfg.Billing.DueDateGraceDays,
		cfg.Billing.DefaultTaxRate,
	)
	gateway := paymentsService.NewSimulatedGateway(cfg.Billing.GatewaySuccessRate, now.UnixNano())
	paymentSvc := paymentsService.NewService(
		paymentRepository,
		invoiceSvc,
		gateway,
		notifier,
		paymentReferences,
		metricsCollector,
		log,
	)

	// Инициализируем use cases
	generateInvoiceUseCase := generateInvoiceUC.NewUseCase(
		reservationRepository,
		taskRepository,
		invoiceSvc,
		pricingResolver,
		renderer,
		notifier,
		txMgr,
		metricsCollector,
		log,
		cfg.Billing.ServiceFeePercent,
	)
	updateReservationStatusUseCase := updateReservationStatusUC.NewUseCase(
		reservationRepository,
		generateInvoiceUseCase,
		txMgr,
		log,
	)

	// Фоновые развёртки биллинга
	billingScheduler := scheduler.New(
		invoiceSvc,
		reservationRepository,
		generateInvoiceUseCase,
		notifier,
		metricsCollector,
		log,
		cfg.Billing.ReminderCeiling,
		time.Duration(cfg.Scheduler.OverdueSweepHours)*time.Hour,
		time.Duration(cfg.Scheduler.AutoGenerateSweepMins)*time.Minute,
	)
	if cfg.Scheduler.Enabled {
		billingScheduler.Start(context.Background())
		log.Info("Billing scheduler started (overdue sweep every %dh, auto-generation sweep every %dm)",
			cfg.Scheduler.OverdueSweepHours, cfg.Scheduler.AutoGenerateSweepMins)
	}

	// Инициализируем handlers
	updateReservationStatus := updateReservationStatusHandler.NewHandler(updateReservationStatusUseCase, log)
	getInvoice := getInvoiceHandler.NewHandler(invoiceSvc, log)
	sendInvoice := sendInvoiceHandler.NewHandler(invoiceSvc, renderer, notifier, log)
	cancelInvoice := cancelInvoiceHandler.NewHandler(invoiceSvc, log)
	recordPayment := recordPaymentHandler.NewHandler(paymentSvc, log)
	validatePayment := validatePaymentHandler.NewHandler(paymentSvc, log)
	getPendingPayments := getPendingPaymentsHandler.NewHandler(paymentSvc, log)
	getPaymentStatistics := getPaymentStatisticsHandler.NewHandler(paymentSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// PROTECTED ROUTES (требуют X-User-ID header)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Смена статуса бронирования; переход в completed выставляет счёт
	protected.HandleFunc("/reservations/{reservationId}/status", updateReservationStatus.Handle).Methods(http.MethodPatch)

	// --- Счета ---
	protected.HandleFunc("/invoices/{invoiceId}", getInvoice.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/invoices/{invoiceId}/send", sendInvoice.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/invoices/{invoiceId}/cancel", cancelInvoice.Handle).Methods(http.MethodPatch)

	// --- Платежи ---
	protected.HandleFunc("/invoices/{invoiceId}/payments", recordPayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{paymentId}/validate", validatePayment.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/payments/pending", getPendingPayments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/payments/statistics", getPaymentStatistics.Handle).Methods(http.MethodGet)

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

	if cfg.Scheduler.Enabled {
		billingScheduler.Stop()
	}

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
