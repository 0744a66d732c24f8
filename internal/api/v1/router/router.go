package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"lms/internal/api/v1/handler"
	"lms/internal/config"
	"lms/internal/mail"
	"lms/internal/middleware"
	"lms/internal/pubsub"
	"lms/internal/repository"
	"lms/internal/service"
	"lms/internal/throttle"
	"lms/internal/validation"

	_ "lms/docs/swagger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// New wires storage, integrations, services and handlers. The returned
// cleanup releases the database pool and integration clients.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, jwtSecret string) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")
	logger.Info().Str("db_connection_string_port_check", repository.PortFromDSN(cfg.DBConnectionString)).Msg("DB connection string port")

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("Cleanup failed")
			}
		}
	}

	// 1. Database
	db, err := repository.Open(ctx, cfg.DBConnectionString, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, db.Close)
	logger.Info().Msg("Database connection successful")

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db, "up"); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	// 2. Receipt storage
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load S3 config: %w", err)
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Enrollment events
	var publisher pubsub.Publisher
	if cfg.PubSubEnabled() {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create Pub/Sub publisher: %w", err)
		}
		closers = append(closers, p.Close)
		publisher = p
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set, enrollment events will only be logged")
		publisher = pubsub.NewLogPublisher(logger)
	}

	// 4. Review emails
	var mailer mail.Sender
	if cfg.SendGridAPIKey != "" {
		mailer = mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.AppName, cfg.MailFrom)
	} else {
		mailer = mail.NewConsoleSender(logger, cfg.AppName)
	}

	// 5. Login throttling
	limiter := throttle.Noop()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, login throttling degraded")
		}
		limiter = throttle.NewRedisLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginLockout)
	}

	validate := validation.New()

	// 6. Repositories, services and handlers
	userRepo := repository.NewUserRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	noteRepo := repository.NewNoteRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepo(db)

	userSvc := service.NewUserService(userRepo, limiter, jwtSecret, cfg.JWTTTL, logger)
	sessionSvc := service.NewSessionService(sessionRepo, logger)
	noteSvc := service.NewNoteService(noteRepo)
	receiptSvc := service.NewReceiptService(s3Client, cfg.S3URL, cfg.S3Bucket, cfg.S3PublicBaseURL, cfg.ReceiptURLTTL, logger)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, receiptSvc, publisher, cfg.PubSubEnrollmentTopic, mailer, logger)

	userHandler := handler.NewUserHandler(userSvc, validate)
	sessionHandler := handler.NewSessionHandler(sessionSvc, validate)
	noteHandler := handler.NewNoteHandler(noteSvc, validate)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, validate)

	// 7. Middleware
	authMiddleware := middleware.AuthMiddleware(jwtSecret, userRepo, logger)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(jwtSecret, userRepo, logger)
	subjectMiddleware := middleware.SubjectAccess(enrollmentSvc, handler.SubjectParam, logger)

	// 8. Routes
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		userHandler.RegisterRoutes(r, authMiddleware, optionalAuthMiddleware)
		sessionHandler.RegisterRoutes(r, authMiddleware, optionalAuthMiddleware, subjectMiddleware)
		noteHandler.RegisterRoutes(r, authMiddleware, optionalAuthMiddleware, subjectMiddleware)
		enrollmentHandler.RegisterRoutes(r, authMiddleware)
	})

	r.Get("/healthz", healthz(db))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	})

	// 9. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Info().Msg("Router initialized")
	return middleware.LoggerMiddleware(logger)(c.Handler(r)), cleanup, nil
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		// Presigning inspects the stack, so only remove what exists.
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
