package vehicle_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/vehiclepass/vehicle-command/mocks"
	"github.com/vehiclepass/vehicle-command/pkg/connector/inet"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/status"
	"github.com/vehiclepass/vehicle-command/pkg/units"
	"github.com/vehiclepass/vehicle-command/pkg/vehicle"
)

const vin = "MOCK12345"

var ack = []byte(`{"currentStatus": "REQUESTED", "statusReason": "Command in progress"}`)

func fixture(name string) []byte {
	body, err := os.ReadFile(filepath.Join("testdata", name))
	Expect(err).NotTo(HaveOccurred())
	return body
}

var _ = Describe("Vehicle", func() {
	var (
		ctrl   *gomock.Controller
		client *mocks.TelemetryClient
		car    *vehicle.Vehicle
		ctx    context.Context
		fast   = vehicle.WithVerifyDelay(time.Millisecond)
	)

	load := func(name string) {
		client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture(name), nil)
		Expect(car.Refresh(ctx)).To(Succeed())
	}

	expectCommand := func(command string) *gomock.Call {
		return client.EXPECT().SendCommand(gomock.Any(), vin, command).Return(ack, nil)
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		DeferCleanup(ctrl.Finish)
		client = mocks.NewTelemetryClient(ctrl)
		car, err = vehicle.New(client, vin, units.DefaultPreferences())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("requires a VIN", func() {
			_, err := vehicle.New(client, "", units.DefaultPreferences())
			var configErr *protocol.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
		})

		It("rejects invalid unit preferences", func() {
			_, err := vehicle.New(client, vin, units.Preferences{Temperature: "kelvin"})
			var configErr *protocol.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
		})

		It("starts with an empty status", func() {
			_, err := car.Odometer()
			Expect(protocol.IsStatusError(err)).To(BeTrue())
		})
	})

	Describe("status", func() {
		BeforeEach(func() {
			load("baseline.json")
		})

		It("exposes measurements in the preferred units", func() {
			temp, err := car.OutsideTemperature()
			Expect(err).NotTo(HaveOccurred())
			Expect(temp.String()).To(Equal("32.0°F"))

			coolant, err := car.Engine.CoolantTemperature()
			Expect(err).NotTo(HaveOccurred())
			Expect(coolant.F()).To(Equal(192.2))

			odometer, err := car.Odometer()
			Expect(err).NotTo(HaveOccurred())
			Expect(odometer.MI()).To(Equal(65583.84))

			fuel, err := car.FuelLevel()
			Expect(err).NotTo(HaveOccurred())
			Expect(fuel.Fraction()).To(Equal(0.7272))
		})

		It("round-trips tire pressures between units", func() {
			pressure, err := car.Tires.Pressure(status.WheelFrontLeft)
			Expect(err).NotTo(HaveOccurred())
			Expect(pressure.PSI()).To(Equal(39.45))
			Expect(pressure.Bar()).To(Equal(2.72))
			Expect(units.PressureFromPSI(pressure.PSI()).KPA()).To(BeNumerically("~", 272, 0.01))

			positions, err := car.Tires.Positions()
			Expect(err).NotTo(HaveOccurred())
			Expect(positions).To(HaveLen(4))

			system, err := car.Tires.SystemStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(system).To(Equal("NO_WARNING"))
		})

		It("reports door and seat belt state", func() {
			Expect(car.Doors.AreLocked()).To(BeTrue())
			Expect(car.Doors.AreUnlocked()).To(BeFalse())
			Expect(car.Doors.Status(status.DoorTailgate)).To(Equal("CLOSED"))
			Expect(car.SeatBelts.Status(status.OccupantDriver)).To(Equal("UNBUCKLED"))
			Expect(car.SeatBelts.Roles()).To(HaveLen(2))
		})

		It("fails with a StatusError when a metric is missing", func() {
			load("missing_temperature.json")
			_, err := car.OutsideTemperature()
			var statusErr *protocol.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Metric).To(Equal("outsideTemperature"))
		})

		It("keeps the previous snapshot when a refresh fails", func() {
			before := car.Status()
			client.EXPECT().FetchStatus(gomock.Any(), vin).Return(nil, &inet.HttpError{Code: http.StatusBadGateway})
			Expect(car.Refresh(ctx)).NotTo(Succeed())
			Expect(car.Status()).To(BeIdenticalTo(before))
		})
	})

	Describe("Doors", func() {
		BeforeEach(func() {
			load("baseline.json")
		})

		It("does not lock doors that are already locked", func() {
			skipped := testutil.ToFloat64(vehicle.CommandsTotal.WithLabelValues("lock", "skipped"))
			result, err := car.Doors.Lock(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(vehicle.OutcomeSkipped))
			Expect(result.Response).To(BeNil())
			Expect(testutil.ToFloat64(vehicle.CommandsTotal.WithLabelValues("lock", "skipped"))).To(Equal(skipped + 1))
		})

		It("re-issues the lock command when forced", func() {
			expectCommand("lock").Times(1)
			result, err := car.Doors.Lock(ctx, vehicle.WithForce(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(vehicle.OutcomeIssued))
			ack, err := result.Acknowledgement()
			Expect(err).NotTo(HaveOccurred())
			Expect(ack.CurrentStatus).To(Equal("REQUESTED"))
		})

		It("verifies an unlock command", func() {
			expectCommand("unLock").Times(1)
			client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture("unlocked.json"), nil)
			result, err := car.Doors.Unlock(ctx, vehicle.WithVerify(true), fast)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(vehicle.OutcomeVerified))
			Expect(result.Message).To(Equal("Doors are now unlocked"))
			Expect(car.Doors.AreUnlocked()).To(BeTrue())
		})

		It("does not verify by default", func() {
			expectCommand("unLock").Times(1)
			result, err := car.Doors.Unlock(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(vehicle.OutcomeIssued))
		})
	})

	Describe("Engine", func() {
		Context("when the vehicle is off", func() {
			BeforeEach(func() {
				load("baseline.json")
			})

			It("starts the vehicle and verifies it is running", func() {
				expectCommand("remoteStart").Times(1)
				client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture("remotely_started.json"), nil)

				result, err := car.Engine.Start(ctx, fast)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeVerified))
				Expect(car.RemoteStartCount()).To(Equal(1))

				Expect(car.Engine.IsRunning()).To(BeTrue())
				Expect(car.Engine.IsRemotelyStarted()).To(BeTrue())
				Expect(car.Engine.IsIgnitionStarted()).To(BeFalse())
				countdown, err := car.Engine.ShutoffCountdown()
				Expect(err).NotTo(HaveOccurred())
				Expect(countdown.Seconds()).To(Equal(851.0))
				Expect(countdown.HumanReadable()).To(Equal("14m 11s"))

				now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
				Expect(car.Engine.ShutoffTime(now)).To(Equal(now.Add(851 * time.Second)))
				Expect(car.Engine.RPM()).To(Equal(712))
			})

			It("reports a verification failure without retrying", func() {
				expectCommand("remoteStart").Times(1)
				client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture("baseline.json"), nil).Times(1)

				result, err := car.Engine.Start(ctx, fast)
				var verifyErr *protocol.CommandVerificationError
				Expect(errors.As(err, &verifyErr)).To(BeTrue())
				Expect(verifyErr.Message).To(Equal("Vehicle failed to start"))
				Expect(protocol.MayHaveSucceeded(err)).To(BeTrue())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeIssued))
				Expect(car.RemoteStartCount()).To(Equal(1))
			})

			It("does not stop a vehicle that is not running", func() {
				result, err := car.Engine.Stop(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeSkipped))
			})

			It("does not extend the shutoff time", func() {
				result, err := car.Engine.ExtendShutoff(ctx, vehicle.WithExtendShutoffDelay(0))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeSkipped))
				Expect(car.RemoteStartCount()).To(Equal(0))
			})

			It("returns context errors while waiting to verify", func() {
				expectCommand("remoteStart").Times(1)
				canceled, cancel := context.WithCancel(ctx)
				cancel()
				_, err := car.Engine.Start(canceled, vehicle.WithVerifyDelay(time.Hour))
				Expect(err).To(MatchError(context.Canceled))
			})
		})

		Context("when the ignition is on", func() {
			BeforeEach(func() {
				load("ignition_on.json")
			})

			It("treats the vehicle as running", func() {
				Expect(car.Engine.IsRunning()).To(BeTrue())
				Expect(car.Engine.IsIgnitionStarted()).To(BeTrue())
				Expect(car.Engine.IsNotRunning()).To(BeFalse())
				result, err := car.Engine.Start(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeSkipped))
			})
		})

		Context("when the vehicle was remotely started", func() {
			BeforeEach(func() {
				load("remotely_started.json")
			})

			It("does not start a running vehicle", func() {
				result, err := car.Engine.Start(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeSkipped))
				Expect(car.RemoteStartCount()).To(Equal(0))
			})

			It("passes the server's rejection of a third remote start through unchanged", func() {
				rejection := &inet.HttpError{Code: http.StatusForbidden, Message: "remote start limit reached"}
				gomock.InOrder(
					expectCommand("remoteStart"),
					expectCommand("remoteStart"),
					client.EXPECT().SendCommand(gomock.Any(), vin, "remoteStart").Return(nil, rejection),
				)

				noVerify := []vehicle.Option{vehicle.WithForce(true), vehicle.WithVerify(false)}
				for i := 0; i < 2; i++ {
					_, err := car.Engine.Start(ctx, noVerify...)
					Expect(err).NotTo(HaveOccurred())
				}
				Expect(car.RemoteStartCount()).To(Equal(2))

				_, err := car.Engine.Start(ctx, noVerify...)
				Expect(err).To(BeIdenticalTo(rejection))
				Expect(car.RemoteStartCount()).To(Equal(2))
			})

			It("extends the shutoff time once", func() {
				expectCommand("remoteStart").Times(1)
				result, err := car.Engine.ExtendShutoff(ctx, vehicle.WithExtendShutoffDelay(0))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeIssued))
				Expect(car.RemoteStartCount()).To(Equal(1))
			})

			It("refuses to extend after the remote start limit unless forced", func() {
				expectCommand("remoteStart").Times(3)
				noDelay := vehicle.WithExtendShutoffDelay(0)
				for i := 0; i < 2; i++ {
					_, err := car.Engine.ExtendShutoff(ctx, noDelay)
					Expect(err).NotTo(HaveOccurred())
				}

				result, err := car.Engine.ExtendShutoff(ctx, noDelay)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeSkipped))
				Expect(result.Message).To(ContainSubstring(protocol.ErrRemoteStartLimit.Error()))

				result, err = car.Engine.ExtendShutoff(ctx, noDelay, vehicle.WithForce(true))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeIssued))
				Expect(car.RemoteStartCount()).To(Equal(3))
			})

			It("stops the vehicle without resetting the remote start count", func() {
				gomock.InOrder(
					expectCommand("remoteStart"),
					expectCommand("cancelRemoteStart"),
				)
				client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture("baseline.json"), nil)

				_, err := car.Engine.ExtendShutoff(ctx, vehicle.WithExtendShutoffDelay(0))
				Expect(err).NotTo(HaveOccurred())

				result, err := car.Engine.Stop(ctx, fast)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Outcome).To(Equal(vehicle.OutcomeVerified))
				Expect(result.Message).To(Equal("Vehicle's engine is now stopped"))
				Expect(car.RemoteStartCount()).To(Equal(1))

				car.ResetRemoteStartCount()
				Expect(car.RemoteStartCount()).To(Equal(0))
			})
		})

		It("extends the shutoff time after starting", func() {
			load("baseline.json")
			gomock.InOrder(
				expectCommand("remoteStart"),
				expectCommand("remoteStart"),
			)
			// Both the start and the extension are verified.
			client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture("remotely_started.json"), nil).Times(2)

			result, err := car.Engine.Start(ctx, fast,
				vehicle.WithExtendShutoff(true), vehicle.WithExtendShutoffDelay(0), vehicle.WithVerify(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(vehicle.OutcomeVerified))
			Expect(car.RemoteStartCount()).To(Equal(2))
		})
		It("returns the extension error unchanged after starting", func() {
			load("baseline.json")
			rejection := &inet.HttpError{Code: http.StatusForbidden, Message: "remote start limit reached"}
			gomock.InOrder(
				expectCommand("remoteStart"),
				client.EXPECT().SendCommand(gomock.Any(), vin, "remoteStart").Return(nil, rejection),
			)
			client.EXPECT().FetchStatus(gomock.Any(), vin).Return(fixture("remotely_started.json"), nil)

			result, err := car.Engine.Start(ctx, fast,
				vehicle.WithExtendShutoff(true), vehicle.WithExtendShutoffDelay(0))
			Expect(err).To(BeIdenticalTo(rejection))
			Expect(result.Outcome).To(Equal(vehicle.OutcomeVerified))
			Expect(car.RemoteStartCount()).To(Equal(1))
		})
	})

	Describe("Execute", func() {
		BeforeEach(func() {
			load("baseline.json")
		})

		It("rejects verification without a predicate before sending anything", func() {
			_, err := car.Execute(ctx, vehicle.CommandRequest{Command: vehicle.CommandLock, Verify: true})
			var configErr *protocol.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
		})

		It("issues forced commands without a predicate", func() {
			expectCommand("lock").Times(1)
			result, err := car.Execute(ctx, vehicle.CommandRequest{Command: vehicle.CommandLock, Force: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(vehicle.OutcomeIssued))
		})

		It("propagates predicate errors", func() {
			_, err := car.Execute(ctx, vehicle.CommandRequest{
				Command: vehicle.CommandLock,
				Guard: func(s *status.Snapshot) (bool, error) {
					_, err := s.DoorLockStatus(status.DoorFrontRight)
					return false, err
				},
			})
			Expect(protocol.IsStatusError(err)).To(BeTrue())
		})
	})
})

var _ = Describe("Command", func() {
	It("uses the wire names", func() {
		Expect(vehicle.CommandLock.String()).To(Equal("lock"))
		Expect(vehicle.CommandUnlock.String()).To(Equal("unLock"))
		Expect(vehicle.CommandRemoteStart.String()).To(Equal("remoteStart"))
		Expect(vehicle.CommandCancelRemoteStart.String()).To(Equal("cancelRemoteStart"))
	})

	It("identifies the remote start family", func() {
		Expect(vehicle.CommandRemoteStart.IsRemoteStart()).To(BeTrue())
		Expect(vehicle.CommandCancelRemoteStart.IsRemoteStart()).To(BeFalse())
	})

	It("parses wire names", func() {
		Expect(vehicle.ParseCommand("unlock")).To(Equal(vehicle.CommandUnlock))
		_, err := vehicle.ParseCommand("honk")
		Expect(err).To(HaveOccurred())
	})
})
