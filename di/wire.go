//go:build wireinject
// +build wireinject

package di

import (
	"fleet/config"
	"fleet/infras/jwt"
	"fleet/infras/kafka"
	"fleet/infras/otel"
	"fleet/infras/postgres"
	"fleet/infras/redis"
	"fleet/infras/routing"
	"fleet/infras/s3"
	"fleet/permissions"
	"fleet/shared/cache"
	"fleet/transport/http"
	"fleet/transport/http/middleware"
	"fleet/transport/http/router"

	"github.com/google/wire"

	authService "fleet/internal/domains/auth/service"
	bookingRepository "fleet/internal/domains/booking/repository"
	bookingService "fleet/internal/domains/booking/service"
	surveyRepository "fleet/internal/domains/survey/repository"
	surveyService "fleet/internal/domains/survey/service"
	userRepository "fleet/internal/domains/user/repository"
	userService "fleet/internal/domains/user/service"
	vehicleLogRepository "fleet/internal/domains/vehiclelog/repository"
	vehicleLogService "fleet/internal/domains/vehiclelog/service"

	authHandler "fleet/internal/handlers/auth"
	bookingHandler "fleet/internal/handlers/booking"
	surveyHandler "fleet/internal/handlers/survey"
	userHandler "fleet/internal/handlers/user"
	vehicleLogHandler "fleet/internal/handlers/vehiclelog"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	wire.Bind(new(postgres.TxRunner), new(*postgres.Connection)),
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
	routing.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	authService.New,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var surveyDomain = wire.NewSet(
	surveyRepository.New,
	surveyService.New,
)

var vehicleLogDomain = wire.NewSet(
	vehicleLogRepository.New,
	vehicleLogService.New,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	bookingDomain,
	surveyDomain,
	vehicleLogDomain,
)

var routes = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	bookingHandler.New,
	surveyHandler.New,
	vehicleLogHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routes,
		http.New,
	)

	return &http.HTTP{}
}
