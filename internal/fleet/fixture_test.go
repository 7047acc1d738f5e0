package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *fakeStore
	pub   *recordingPublisher
	svc   *Service
	owner primitive.ObjectID
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: newFakeStore(),
		pub:   &recordingPublisher{},
		owner: primitive.NewObjectID(),
		now:   time.Date(2024, time.March, 15, 9, 0, 0, 0, time.Local),
	}
	f.svc = NewService(f.store.collections(), fakeHasher{}, f.pub)
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) ownerIdentity() Identity {
	return Identity{UserID: f.owner, Role: models.RoleOwner}
}

func driverIdentity(d *models.Driver) Identity {
	return Identity{UserID: d.User, Role: models.RoleDriver}
}

func vehicleRequest(number string) models.VehicleRequest {
	return models.VehicleRequest{
		VehicleNumber:     ptr(number),
		ChassisNumber:     ptr("CH-" + number),
		Model:             ptr("AJAX ARGO 4000"),
		ManufacturingYear: ptr(2021),
		DrumCapacity:      ptr(6.0),
		RegistrationDate:  ptr(time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func (f *fixture) vehicle(number string) *models.Vehicle {
	f.t.Helper()
	v, err := f.svc.CreateVehicle(f.ctx, f.owner, vehicleRequest(number))
	require.NoError(f.t, err)
	return v
}

func driverRequest(name, mobile string) models.DriverRequest {
	return models.DriverRequest{
		Name:          ptr(name),
		Mobile:        ptr(mobile),
		LicenseNumber: ptr("DL-" + mobile),
		LicenseExpiry: ptr(time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func (f *fixture) driver(name, mobile string) *models.Driver {
	f.t.Helper()
	d, err := f.svc.CreateDriver(f.ctx, f.owner, driverRequest(name, mobile))
	require.NoError(f.t, err)
	return d
}

func (f *fixture) assign(v *models.Vehicle, d *models.Driver) {
	f.t.Helper()
	_, err := f.svc.AssignDriverToVehicle(f.ctx, f.owner, v.ID, &d.ID)
	require.NoError(f.t, err)
}

func (f *fixture) storedVehicle(id primitive.ObjectID) models.Vehicle {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.vehicles[id]
}

// requireSymmetric checks that every driver's derived view matches the
// vehicles pointing at it, and that no driver holds two vehicles.
func (f *fixture) requireSymmetric() {
	f.t.Helper()
	drivers, err := f.svc.ListDrivers(f.ctx, f.owner, "")
	require.NoError(f.t, err)
	vehicles, err := f.svc.ListVehicles(f.ctx, f.ownerIdentity(), "")
	require.NoError(f.t, err)

	holders := map[primitive.ObjectID]int{}
	for _, v := range vehicles {
		if v.AssignedDriver != nil {
			holders[*v.AssignedDriver]++
		}
	}
	for _, d := range drivers {
		require.LessOrEqual(f.t, holders[d.ID], 1, "driver %s holds more than one vehicle", d.Name)
		for _, v := range vehicles {
			pointsBack := v.AssignedDriver != nil && *v.AssignedDriver == d.ID
			require.Equal(f.t, pointsBack, d.HasVehicle(v.ID), "vehicle %s / driver %s", v.VehicleNumber, d.Name)
		}
	}
}

func (f *fixture) countChecklists() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.checklists)
}

func (f *fixture) countExpenses() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.expenses)
}
