package routes

import (
	"net/http"

	"github.com/blomstudio/blom/internal/app"
	"github.com/blomstudio/blom/internal/handler"
	"github.com/blomstudio/blom/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(a.DB)
	auth := handler.NewAuthHandler(a.AuthService, a.SessionBus)
	account := handler.NewAccountHandler(a.ProfileService)
	sess := handler.NewSessionHandler(a.ProfileService, a.SessionBus, a.Cfg.SessionBootstrapTimeout)
	course := handler.NewCourseHandler(a.CourseService, a.AccessResolver)
	invite := handler.NewInviteHandler(a.InviteService)
	webhook := handler.NewWebhookHandler(a.InviteService, a.Cfg.PurchaseWebhookSecret)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/magic-link", rateLimiter(auth.MagicLink))
	mux.HandleFunc("GET /api/auth/verify", auth.VerifyMagicLink)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("POST /api/auth/refresh", middleware.RequireAuth(auth.Refresh))

	// Session
	mux.HandleFunc("GET /api/session", sess.Current)
	mux.HandleFunc("GET /api/session/watch", middleware.RequireAuth(sess.Watch))

	// Courses (public catalog; access decisions gate the content, not the routes)
	mux.HandleFunc("GET /api/courses", course.List)
	mux.HandleFunc("GET /api/courses/{ref}", course.Detail)
	mux.HandleFunc("GET /api/courses/{ref}/lessons", course.Lessons)
	mux.HandleFunc("GET /api/courses/{ref}/access", course.Access)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/me", middleware.RequireAuth(account.Me))
	mux.HandleFunc("PUT /api/me/profile", middleware.RequireAuth(account.SetupProfile))
	mux.HandleFunc("GET /api/me/courses", middleware.RequireAuth(course.Enrolled))

	// Invite claim (rate limited separately: retry-prone by design)
	claimLimiter := middleware.RateLimitClaim()
	mux.HandleFunc("POST /api/invites/{token}/claim", claimLimiter(middleware.RequireAuth(invite.Claim)))

	// ============================================================================
	// ADMIN ROUTES
	// ============================================================================

	requireAdmin := middleware.RequireAdmin(a.Cfg.AdminUserIDs)

	mux.HandleFunc("POST /api/admin/invites", requireAdmin(invite.Create))
	mux.HandleFunc("GET /api/admin/invites", requireAdmin(invite.ListByCourse))
	mux.HandleFunc("DELETE /api/admin/invites/{id}", requireAdmin(invite.Revoke))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	mux.HandleFunc("POST /webhooks/purchase", webhook.Purchase)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(a.Cfg),
		middleware.RequestLogging,
		middleware.Auth(a.AuthService, a.UserRepository, a.ProfileService),
	)
}
