package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fleet/config"
	"fleet/infras/otel/mocks"
	routingMocks "fleet/infras/routing/mocks"
	bookingMocks "fleet/internal/domains/booking/mocks"
	"fleet/internal/domains/booking/model"
	"fleet/internal/domains/booking/model/dto"
	"fleet/internal/domains/booking/service"
	cacheMocks "fleet/shared/cache/mocks"
	"fleet/shared/constant"
	"fleet/shared/failure"
)

// fakeTxRunner runs the callback without a real transaction so repository
// mocks can ignore the tx argument.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func engineConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Engine.PickupWaitTimeMinutes = 15
	cfg.Engine.TravelBufferMinutes = 15
	cfg.Engine.TimeSlotRoundingMinutes = 15
	cfg.Engine.MaxGapMinutesForTravelCheck = 60

	return cfg
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func existingBooking(id string, start, end time.Time) model.Booking {
	driver := "driver-1"

	return model.Booking{
		ID:                 id,
		Title:              "Morning transfer",
		PickupAddress:      "Terminal 1",
		DestinationAddress: "Harbor Gate",
		PassengerName:      "A. Passenger",
		PassengerCount:     2,
		Status:             model.StatusIncomplete,
		StartTime:          start,
		EndTime:            end,
		AgencyID:           "agency-1",
		DriverID:           &driver,
	}
}

func TestBookingService_CheckAvailability(t *testing.T) {
	tests := []struct {
		name          string
		schedule      []model.Booking
		start, end    time.Time
		travelMinutes int
		travelKnown   bool
		oracleCalled  bool
		want          dto.AvailabilityResponse
	}{
		{
			name:         "overlapping span conflicts",
			schedule:     []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			start:        at(9, 30),
			end:          at(10, 30),
			oracleCalled: false,
			want: dto.AvailabilityResponse{
				Outcome:           dto.OutcomeConflict,
				ConflictBookingID: "b-1",
			},
		},
		{
			name:          "tight gap with known travel time is infeasible",
			schedule:      []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			start:         at(10, 5),
			end:           at(11, 5),
			travelMinutes: 20,
			travelKnown:   true,
			oracleCalled:  true,
			want: dto.AvailabilityResponse{
				Outcome:          dto.OutcomeInsufficientTravelTime,
				ShortfallMinutes: 30,
			},
		},
		{
			name:          "gap covering travel plus buffer is feasible",
			schedule:      []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			start:         at(10, 45),
			end:           at(11, 45),
			travelMinutes: 20,
			travelKnown:   true,
			oracleCalled:  true,
			want:          dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible},
		},
		{
			name:         "unknown travel time degrades to a skipped check",
			schedule:     []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			start:        at(10, 30),
			end:          at(11, 30),
			travelKnown:  false,
			oracleCalled: true,
			want: dto.AvailabilityResponse{
				Outcome:            dto.OutcomeFeasible,
				TravelCheckSkipped: true,
			},
		},
		{
			name:         "unknown travel time never blocks a tight gap",
			schedule:     []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			start:        at(10, 5),
			end:          at(11, 5),
			travelKnown:  false,
			oracleCalled: true,
			want: dto.AvailabilityResponse{
				Outcome:            dto.OutcomeFeasible,
				TravelCheckSkipped: true,
			},
		},
		{
			name:          "gap exactly at the travel-check window still consults the oracle",
			schedule:      []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			start:         at(11, 0),
			end:           at(12, 0),
			travelMinutes: 20,
			travelKnown:   true,
			oracleCalled:  true,
			want:          dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible},
		},
		{
			name:         "gap beyond the travel-check window skips the oracle",
			schedule:     []model.Booking{existingBooking("b-1", at(8, 0), at(9, 0))},
			start:        at(10, 30),
			end:          at(11, 30),
			oracleCalled: false,
			want:         dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible},
		},
		{
			name: "cancelled bookings do not occupy the schedule",
			schedule: func() []model.Booking {
				b := existingBooking("b-1", at(9, 0), at(10, 0))
				b.Status = model.StatusCancelled

				return []model.Booking{b}
			}(),
			start:        at(9, 30),
			end:          at(10, 30),
			oracleCalled: false,
			want:         dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible},
		},
		{
			name:         "empty schedule is always feasible",
			schedule:     nil,
			start:        at(9, 0),
			end:          at(10, 0),
			oracleCalled: false,
			want:         dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := bookingMocks.NewMockBooking(ctrl)
			mockOracle := routingMocks.NewMockOracle(ctrl)
			mockOtel := mocks.NewOtel()

			svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, mockOracle, nil)

			mockRepo.EXPECT().
				LockDriverScheduleTx(gomock.Any(), gomock.Any(), "driver-1").
				Return(nil)
			mockRepo.EXPECT().
				ListActiveForDriverTx(gomock.Any(), gomock.Any(), "driver-1").
				Return(tt.schedule, nil)

			if tt.oracleCalled {
				mockOracle.EXPECT().
					EstimateMinutes(gomock.Any(), "Harbor Gate", "Terminal 2").
					Return(tt.travelMinutes, tt.travelKnown)
			}

			res, err := svc.CheckAvailability(context.Background(), dto.CheckAvailabilityRequest{
				DriverID:      "driver-1",
				StartTime:     tt.start.Format(time.RFC3339),
				EndTime:       tt.end.Format(time.RFC3339),
				PickupAddress: "Terminal 2",
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestBookingService_CheckAvailability_InvalidSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockOtel := mocks.NewOtel()

	svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, routingMocks.NewMockOracle(ctrl), nil)

	_, err := svc.CheckAvailability(context.Background(), dto.CheckAvailabilityRequest{
		DriverID:      "driver-1",
		StartTime:     at(10, 0).Format(time.RFC3339),
		EndTime:       at(10, 0).Format(time.RFC3339),
		PickupAddress: "Terminal 2",
	})

	assert.Error(t, err)
	assert.Equal(t, 400, failure.GetCode(err))
}

func TestBookingService_EarliestStart(t *testing.T) {
	tests := []struct {
		name        string
		schedule    []model.Booking
		proposed    time.Time
		setupOracle func(oracle *routingMocks.MockOracle)
		want        string
		wantSkipped bool
	}{
		{
			name:     "empty schedule rounds up to the next slot",
			schedule: nil,
			proposed: at(14, 7),
			want:     at(14, 15).Format(time.RFC3339),
		},
		{
			name:     "slot-aligned proposal on an empty schedule is kept",
			schedule: nil,
			proposed: at(14, 15),
			want:     at(14, 15).Format(time.RFC3339),
		},
		{
			name:     "scans past a conflict and a travel shortfall",
			schedule: []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			proposed: at(10, 5),
			setupOracle: func(oracle *routingMocks.MockOracle) {
				oracle.EXPECT().
					EstimateMinutes(gomock.Any(), "Harbor Gate", "Terminal 2").
					Return(20, true).
					Times(2)
			},
			// 10:05 rounds to 10:15; travel 20 + buffer 15 needs a 35
			// minute lead from 10:00, so the first workable slot is 10:45.
			want: at(10, 45).Format(time.RFC3339),
		},
		{
			name:     "proposal inside an existing trip jumps past its end",
			schedule: []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			proposed: at(9, 30),
			setupOracle: func(oracle *routingMocks.MockOracle) {
				oracle.EXPECT().
					EstimateMinutes(gomock.Any(), "Harbor Gate", "Terminal 2").
					Return(20, true).
					Times(2)
			},
			want: at(10, 45).Format(time.RFC3339),
		},
		{
			name:     "unknown travel time falls back to the pickup wait",
			schedule: []model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))},
			proposed: at(10, 0),
			setupOracle: func(oracle *routingMocks.MockOracle) {
				oracle.EXPECT().
					EstimateMinutes(gomock.Any(), "Harbor Gate", "Terminal 2").
					Return(0, false).
					Times(2)
			},
			// 10:00 has zero gap; the pickup wait pushes it to 10:15.
			want:        at(10, 15).Format(time.RFC3339),
			wantSkipped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := bookingMocks.NewMockBooking(ctrl)
			mockOracle := routingMocks.NewMockOracle(ctrl)
			mockOtel := mocks.NewOtel()

			svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, mockOracle, nil)

			mockRepo.EXPECT().
				LockDriverScheduleTx(gomock.Any(), gomock.Any(), "driver-1").
				Return(nil)
			mockRepo.EXPECT().
				ListActiveForDriverTx(gomock.Any(), gomock.Any(), "driver-1").
				Return(tt.schedule, nil)

			if tt.setupOracle != nil {
				tt.setupOracle(mockOracle)
			}

			res, err := svc.EarliestStart(context.Background(), dto.EarliestStartRequest{
				DriverID:      "driver-1",
				ProposedTime:  tt.proposed.Format(time.RFC3339),
				PickupAddress: "Terminal 2",
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.want, res.EarliestStart)
			assert.Equal(t, tt.wantSkipped, res.TravelCheckSkipped)
		})
	}
}

func TestBookingService_Accept(t *testing.T) {
	driver := "driver-1"

	tests := []struct {
		name      string
		setupMock func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "driver accepts a free slot",
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				booking := existingBooking("b-new", at(11, 0), at(12, 0))
				booking.DriverID = nil

				repo.EXPECT().LockDriverScheduleTx(gomock.Any(), gomock.Any(), driver).Return(nil)
				repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(booking, nil)
				repo.EXPECT().ListActiveForDriverTx(gomock.Any(), gomock.Any(), driver).
					Return([]model.Booking{existingBooking("b-1", at(8, 0), at(9, 0))}, nil)
				repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "overlapping slot is rejected with a conflict",
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				booking := existingBooking("b-new", at(9, 30), at(10, 30))
				booking.DriverID = nil

				repo.EXPECT().LockDriverScheduleTx(gomock.Any(), gomock.Any(), driver).Return(nil)
				repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(booking, nil)
				repo.EXPECT().ListActiveForDriverTx(gomock.Any(), gomock.Any(), driver).
					Return([]model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))}, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "tight gap is rejected as unprocessable",
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				booking := existingBooking("b-new", at(10, 5), at(11, 5))
				booking.DriverID = nil

				repo.EXPECT().LockDriverScheduleTx(gomock.Any(), gomock.Any(), driver).Return(nil)
				repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(booking, nil)
				repo.EXPECT().ListActiveForDriverTx(gomock.Any(), gomock.Any(), driver).
					Return([]model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))}, nil)
				oracle.EXPECT().EstimateMinutes(gomock.Any(), "Harbor Gate", "Terminal 1").Return(20, true)
			},
			wantErr:  true,
			wantCode: 422,
		},
		{
			name: "already assigned booking cannot be accepted twice",
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				booking := existingBooking("b-new", at(11, 0), at(12, 0))

				repo.EXPECT().LockDriverScheduleTx(gomock.Any(), gomock.Any(), driver).Return(nil)
				repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "missing booking returns not found",
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				repo.EXPECT().LockDriverScheduleTx(gomock.Any(), gomock.Any(), driver).Return(nil)
				repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := bookingMocks.NewMockBooking(ctrl)
			mockOracle := routingMocks.NewMockOracle(ctrl)
			mockOtel := mocks.NewOtel()

			svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, mockOracle, nil)

			tt.setupMock(mockRepo, mockOracle)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, driver)
			err := svc.Accept(ctx, "b-new")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Start(t *testing.T) {
	driver := "driver-1"

	tests := []struct {
		name      string
		setupMock func(repo *bookingMocks.MockBooking)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "assigned driver starts an incomplete booking",
			setupMock: func(repo *bookingMocks.MockBooking) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).
					Return(existingBooking("b-1", at(9, 0), at(10, 0)), nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "other drivers cannot start the booking",
			setupMock: func(repo *bookingMocks.MockBooking) {
				other := "driver-2"
				booking := existingBooking("b-1", at(9, 0), at(10, 0))
				booking.DriverID = &other

				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantErr:  true,
			wantCode: 403,
		},
		{
			name: "completed booking cannot be restarted",
			setupMock: func(repo *bookingMocks.MockBooking) {
				booking := existingBooking("b-1", at(9, 0), at(10, 0))
				booking.Status = model.StatusCompleted

				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := bookingMocks.NewMockBooking(ctrl)
			mockOtel := mocks.NewOtel()

			svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, routingMocks.NewMockOracle(ctrl), nil)

			tt.setupMock(mockRepo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, driver)
			err := svc.Start(ctx, "b-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Cancel(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(repo *bookingMocks.MockBooking)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "incomplete booking can be cancelled",
			setupMock: func(repo *bookingMocks.MockBooking) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).
					Return(existingBooking("b-1", at(9, 0), at(10, 0)), nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "in-progress booking can be cancelled",
			setupMock: func(repo *bookingMocks.MockBooking) {
				booking := existingBooking("b-1", at(9, 0), at(10, 0))
				booking.Status = model.StatusInProgress

				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "cancelling twice conflicts",
			setupMock: func(repo *bookingMocks.MockBooking) {
				booking := existingBooking("b-1", at(9, 0), at(10, 0))
				booking.Status = model.StatusCancelled

				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := bookingMocks.NewMockBooking(ctrl)
			mockOtel := mocks.NewOtel()

			svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, routingMocks.NewMockOracle(ctrl), nil)

			tt.setupMock(mockRepo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "agency-1")
			err := svc.Cancel(ctx, "b-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "unassigned booking inserts directly",
			req: dto.CreateBookingRequest{
				Title:              "Airport run",
				PickupAddress:      "Terminal 2",
				DestinationAddress: "City Hotel",
				PassengerName:      "B. Traveler",
				PassengerCount:     1,
				StartTime:          at(11, 0).Format(time.RFC3339),
				EndTime:            at(12, 0).Format(time.RFC3339),
			},
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "assigned booking runs the availability gate",
			req: func() dto.CreateBookingRequest {
				driver := "driver-1"

				return dto.CreateBookingRequest{
					Title:              "Airport run",
					PickupAddress:      "Terminal 2",
					DestinationAddress: "City Hotel",
					PassengerName:      "B. Traveler",
					PassengerCount:     1,
					StartTime:          at(9, 30).Format(time.RFC3339),
					EndTime:            at(10, 30).Format(time.RFC3339),
					DriverID:           &driver,
				}
			}(),
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {
				repo.EXPECT().LockDriverScheduleTx(gomock.Any(), gomock.Any(), "driver-1").Return(nil)
				repo.EXPECT().ListActiveForDriverTx(gomock.Any(), gomock.Any(), "driver-1").
					Return([]model.Booking{existingBooking("b-1", at(9, 0), at(10, 0))}, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "inverted span is a bad request",
			req: dto.CreateBookingRequest{
				Title:              "Airport run",
				PickupAddress:      "Terminal 2",
				DestinationAddress: "City Hotel",
				PassengerName:      "B. Traveler",
				PassengerCount:     1,
				StartTime:          at(12, 0).Format(time.RFC3339),
				EndTime:            at(11, 0).Format(time.RFC3339),
			},
			setupMock: func(repo *bookingMocks.MockBooking, oracle *routingMocks.MockOracle) {},
			wantErr:   true,
			wantCode:  400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := bookingMocks.NewMockBooking(ctrl)
			mockOracle := routingMocks.NewMockOracle(ctrl)
			mockOtel := mocks.NewOtel()

			svc := service.New(mockRepo, engineConfig(), cacheMocks.NewNoopCache(), mockOtel, fakeTxRunner{}, mockOracle, nil)

			tt.setupMock(mockRepo, mockOracle)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "agency-1")
			res, err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, res.ID)
				assert.Equal(t, string(model.StatusIncomplete), res.Status)
			}
		})
	}
}
