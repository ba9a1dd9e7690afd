package board

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all board routes on the given router. The caller is
// expected to have applied session loading and RequireSignedIn; role checks
// beyond that live in the gateway and the view composer, not in routing.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/live", h.LiveFeed)
	r.Get("/posts/{id}", h.GetPost)
	r.Post("/posts/{id}/pin", h.TogglePin)
	r.Delete("/posts/{id}", h.DeletePost)
	r.Get("/posts/{id}/comments", h.ListComments)
	r.Post("/posts/{id}/comments", h.CreateComment)
	r.Delete("/posts/{id}/comments/{commentID}", h.DeleteComment)
	r.Get("/posts/{id}/comments/live", h.LiveThread)
}
