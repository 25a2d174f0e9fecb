// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

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
	"fleet/internal/domains/auth/service"
	repository2 "fleet/internal/domains/booking/repository"
	service3 "fleet/internal/domains/booking/service"
	repository3 "fleet/internal/domains/survey/repository"
	service4 "fleet/internal/domains/survey/service"
	"fleet/internal/domains/user/repository"
	service2 "fleet/internal/domains/user/service"
	repository4 "fleet/internal/domains/vehiclelog/repository"
	service5 "fleet/internal/domains/vehiclelog/service"
	"fleet/internal/handlers/auth"
	"fleet/internal/handlers/booking"
	"fleet/internal/handlers/survey"
	"fleet/internal/handlers/user"
	"fleet/internal/handlers/vehiclelog"
	"fleet/permissions"
	"fleet/shared/cache"
	"fleet/transport/http"
	"fleet/transport/http/middleware"
	"fleet/transport/http/router"
	"github.com/google/wire"
)

// Injectors from wire.go:

func InitializeService() *http.HTTP {
	configConfig := config.Get()
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryUser := repository.New(connection, otelOtel)
	jwtJWT := jwt.New(configConfig)
	serviceAuth := service.New(repositoryUser, configConfig, otelOtel, jwtJWT)
	handler := auth.New(serviceAuth, otelOtel)
	client := redis.New(configConfig)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceUser := service2.New(repositoryUser, configConfig, redisCache, otelOtel)
	userHandler := user.New(serviceUser, otelOtel)
	repositoryBooking := repository2.New(connection, otelOtel)
	oracle := routing.New(configConfig, otelOtel)
	kafkaClient := kafka.New(configConfig)
	serviceBooking := service3.New(repositoryBooking, configConfig, redisCache, otelOtel, connection, oracle, kafkaClient)
	bookingHandler := booking.New(serviceBooking, otelOtel)
	repositorySurvey := repository3.New(connection, otelOtel)
	s3S3 := s3.New(configConfig, otelOtel)
	serviceSurvey := service4.New(repositorySurvey, repositoryBooking, configConfig, redisCache, otelOtel, connection, s3S3, kafkaClient)
	surveyHandler := survey.New(serviceSurvey, otelOtel)
	vehicleLog := repository4.New(connection, otelOtel)
	serviceVehicleLog := service5.New(vehicleLog, configConfig, redisCache, otelOtel)
	vehiclelogHandler := vehiclelog.New(serviceVehicleLog, otelOtel)
	domainHandlers := router.DomainHandlers{
		Auth:       handler,
		User:       userHandler,
		Booking:    bookingHandler,
		Survey:     surveyHandler,
		VehicleLog: vehiclelogHandler,
	}
	routerRouter := router.New(domainHandlers)
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	httpHTTP := http.New(configConfig, routerRouter, appMiddleware, authRole)
	return httpHTTP
}

// wire.go:

var configurations = wire.NewSet(config.Get, permissions.Get)

var infrastructures = wire.NewSet(postgres.New, wire.Bind(new(postgres.TxRunner), new(*postgres.Connection)), otel.New, redis.New, jwt.New, s3.New, kafka.New, routing.New)

var middlewares = wire.NewSet(middleware.NewAppMiddleware, middleware.NewAuthRoleMiddleware)

var sharedHelpers = wire.NewSet(cache.NewRedisCache)

var authDomain = wire.NewSet(service.New)

var userDomain = wire.NewSet(repository.New, service2.New)

var bookingDomain = wire.NewSet(repository2.New, service3.New)

var surveyDomain = wire.NewSet(repository3.New, service4.New)

var vehicleLogDomain = wire.NewSet(repository4.New, service5.New)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	bookingDomain,
	surveyDomain,
	vehicleLogDomain,
)

var routes = wire.NewSet(wire.Struct(new(router.DomainHandlers), "*"), auth.New, user.New, booking.New, survey.New, vehiclelog.New, router.New)
