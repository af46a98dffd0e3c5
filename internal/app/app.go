package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/blomstudio/blom/internal/config"
	"github.com/blomstudio/blom/internal/db"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/service"
	"github.com/blomstudio/blom/internal/session"
	"github.com/blomstudio/blom/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Storage        storage.Storage
	UserRepository repository.UserRepository
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
	EmailService   *service.EmailService
	CourseService  *service.CourseService
	InviteService  *service.InviteService
	AccessResolver *service.AccessResolver
	SessionBus     *session.Bus
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	courseRepository := repository.NewCourseRepository(database)
	enrollmentRepository := repository.NewEnrollmentRepository(database)
	inviteRepository := repository.NewInviteRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.TokenMagicLinkExpiry,
	)
	profileService := service.NewProfileService(profileRepository, emailService, cfg.ProfileFetchTimeout)
	courseService := service.NewCourseService(courseRepository, enrollmentRepository, fileStorage)
	inviteService := service.NewInviteService(
		inviteRepository,
		courseRepository,
		emailService,
		cfg.InviteClaimTimeout,
		cfg.InviteDefaultExpiryDays,
	)
	accessResolver := service.NewAccessResolver(courseRepository, enrollmentRepository, cfg.AdminUserIDs)

	return &App{
		Cfg:            cfg,
		DB:             database,
		Storage:        fileStorage,
		UserRepository: userRepository,
		AuthService:    authService,
		ProfileService: profileService,
		EmailService:   emailService,
		CourseService:  courseService,
		InviteService:  inviteService,
		AccessResolver: accessResolver,
		SessionBus:     session.NewBus(),
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
