package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/volleychamp/volleychamp-api/handlers"
	"github.com/volleychamp/volleychamp-api/middleware"
)

// SetupRoutes mounts the public site, the staff back office and the live
// feed onto the router.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	allowedOrigins []string,
	homeHandler *handlers.HomeHandler,
	authHandler *handlers.AuthHandler,
	tournoiHandler *handlers.TournoiHandler,
	declarationHandler *handlers.DeclarationHandler,
	candidatureHandler *handlers.CandidatureHandler,
	clubHandler *handlers.ClubHandler,
	staffHandler *handlers.StaffHandler,
	liveHandler *handlers.LiveHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())
	router.Get("/sante", homeHandler.Sante)

	router.Post("/auth/login", authHandler.Login)

	// Public site: anonymous visitors behind the session cookie.
	router.Group(func(r chi.Router) {
		r.Use(middleware.SessionCookie)

		r.Get("/accueil", homeHandler.Accueil)

		r.Get("/tournois", tournoiHandler.ListPublies)
		r.Get("/tournois/passes", tournoiHandler.ListPasses)
		r.Get("/tournois/{id}", tournoiHandler.GetByID)

		r.Get("/tournois/{id}/declarer", declarationHandler.InitForm)
		r.Post("/declarations", declarationHandler.Create)
		r.Get("/declarations/confirmation", declarationHandler.Confirmation)

		r.Get("/tournois/{id}/candidater", candidatureHandler.InitForm)
		r.Post("/candidatures", candidatureHandler.Create)
		r.Get("/candidatures/confirmation", candidatureHandler.Confirmation)
		r.Get("/candidatures/mes-candidatures", candidatureHandler.MesCandidatures)
		r.Post("/candidatures/{id}/retirer", candidatureHandler.Retirer)
	})

	// Back office: staff token required.
	router.Route("/staff", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.RequireStaff)

		r.Get("/dashboard", staffHandler.Dashboard)

		r.Get("/tournois", tournoiHandler.List)
		r.Post("/tournois", tournoiHandler.Create)
		r.Patch("/tournois/{id}", tournoiHandler.Update)
		r.Delete("/tournois/{id}", tournoiHandler.Delete)

		r.Get("/candidatures", candidatureHandler.List)
		r.Get("/candidatures/{id}", candidatureHandler.GetByID)
		r.Post("/candidatures/{id}/valider", candidatureHandler.Valider)
		r.Post("/candidatures/{id}/refuser", candidatureHandler.Refuser)

		r.Get("/declarations", staffHandler.Declarations)
		r.Post("/declarations/archive", staffHandler.ArchiveDeclarations)

		r.Get("/clubs", clubHandler.List)
		r.Post("/clubs", clubHandler.Create)
		r.Post("/clubs/import", clubHandler.Import)
		r.Get("/clubs/import/modele", clubHandler.Template)

		r.Get("/ws", liveHandler.ServeStaffFeed)
	})
}
