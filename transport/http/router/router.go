package router

import (
	"fleet/internal/handlers/auth"
	"fleet/internal/handlers/booking"
	"fleet/internal/handlers/survey"
	"fleet/internal/handlers/user"
	"fleet/internal/handlers/vehiclelog"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth       auth.Handler
	User       user.Handler
	Booking    booking.Handler
	Survey     survey.Handler
	VehicleLog vehiclelog.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Survey.Router(routerGroup)
		r.DomainHandlers.VehicleLog.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
