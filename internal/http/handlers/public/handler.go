package public

import "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/provider"

// Handler storefront-facing API handlers.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
