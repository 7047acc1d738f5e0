package fleet

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collections are the stores the service works on.
type Collections struct {
	Users      db.UserCollection
	Vehicles   db.VehicleCollection
	Drivers    db.DriverCollection
	Expenses   db.ExpenseCollection
	Checklists db.ChecklistCollection
	Documents  db.DocumentCollection
	Tx         db.Transactor
}

// PasswordHasher hashes driver login passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Identity is the authenticated caller.
type Identity struct {
	UserID primitive.ObjectID
	Role   models.Role
}

// IsOwner reports whether the caller is a fleet owner.
func (i Identity) IsOwner() bool { return i.Role == models.RoleOwner }

// Service implements the fleet operations. Every operation is scoped to one
// owner account.
type Service struct {
	users      db.UserCollection
	vehicles   db.VehicleCollection
	drivers    db.DriverCollection
	expenses   db.ExpenseCollection
	checklists db.ChecklistCollection
	documents  db.DocumentCollection
	tx         db.Transactor
	hasher     PasswordHasher
	events     events.Publisher
	now        func() time.Time
}

// NewService creates a Service. A nil publisher drops events.
func NewService(c Collections, hasher PasswordHasher, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		users:      c.Users,
		vehicles:   c.Vehicles,
		drivers:    c.Drivers,
		expenses:   c.Expenses,
		checklists: c.Checklists,
		documents:  c.Documents,
		tx:         c.Tx,
		hasher:     hasher,
		events:     publisher,
		now:        time.Now,
	}
}

// SetClock replaces the clock that decides "today" and document status.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// actor is an identity resolved to the owner whose records it may touch.
type actor struct {
	Identity
	owner  primitive.ObjectID
	driver *models.Driver
}

// resolve looks up the owner of id. A driver's owner always comes from the
// driver record.
func (s *Service) resolve(ctx context.Context, id Identity) (*actor, error) {
	switch id.Role {
	case models.RoleOwner:
		return &actor{Identity: id, owner: id.UserID}, nil
	case models.RoleDriver:
		driver, err := s.drivers.FindDriverByUser(ctx, id.UserID)
		if err != nil {
			return nil, storeErr(err, "Driver")
		}
		if err := s.attachVehicles(ctx, driver); err != nil {
			return nil, err
		}
		return &actor{Identity: id, owner: driver.Owner, driver: driver}, nil
	default:
		return nil, ErrForbidden
	}
}

func (s *Service) ownedVehicle(ctx context.Context, owner, id primitive.ObjectID) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Vehicle")
	}
	if vehicle.Owner != owner {
		return nil, ErrForbidden
	}
	return vehicle, nil
}

func (s *Service) ownedDriver(ctx context.Context, owner, id primitive.ObjectID) (*models.Driver, error) {
	driver, err := s.drivers.FindDriverByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Driver")
	}
	if driver.Owner != owner {
		return nil, ErrForbidden
	}
	return driver, nil
}

// attachVehicles fills the derived AssignedVehicles view of driver.
func (s *Service) attachVehicles(ctx context.Context, driver *models.Driver) error {
	vehicles, err := s.vehicles.FindVehicles(ctx, db.VehicleFilter{AssignedDriver: &driver.ID})
	if err != nil {
		return storeErr(err, "Vehicle")
	}
	driver.AssignedVehicles = make([]models.VehicleRef, 0, len(vehicles))
	for i := range vehicles {
		driver.AssignedVehicles = append(driver.AssignedVehicles, vehicles[i].Ref())
	}
	return nil
}

// attachDriver fills the populated driver of vehicle. A dangling pointer is
// left unpopulated.
func (s *Service) attachDriver(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.Driver = nil
	if vehicle.AssignedDriver == nil {
		return nil
	}
	driver, err := s.drivers.FindDriverByID(ctx, *vehicle.AssignedDriver)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err, "Driver")
	}
	ref := driver.Ref()
	vehicle.Driver = &ref
	return nil
}

// refs caches short views while populating lists.
type refs struct {
	s        *Service
	vehicles map[primitive.ObjectID]*models.VehicleRef
	drivers  map[primitive.ObjectID]*models.DriverRef
}

func (s *Service) newRefs() *refs {
	return &refs{
		s:        s,
		vehicles: map[primitive.ObjectID]*models.VehicleRef{},
		drivers:  map[primitive.ObjectID]*models.DriverRef{},
	}
}

func (r *refs) vehicle(ctx context.Context, id primitive.ObjectID) *models.VehicleRef {
	if ref, ok := r.vehicles[id]; ok {
		return ref
	}
	var ref *models.VehicleRef
	if v, err := r.s.vehicles.FindVehicleByID(ctx, id); err == nil {
		vr := v.Ref()
		ref = &vr
	} else if !errors.Is(err, db.ErrNotFound) {
		log.WithError(err).WithField("vehicle_id", id.Hex()).Warn("failed to populate vehicle")
	}
	r.vehicles[id] = ref
	return ref
}

func (r *refs) driver(ctx context.Context, id primitive.ObjectID) *models.DriverRef {
	if ref, ok := r.drivers[id]; ok {
		return ref
	}
	var ref *models.DriverRef
	if d, err := r.s.drivers.FindDriverByID(ctx, id); err == nil {
		dr := d.Ref()
		ref = &dr
	} else if !errors.Is(err, db.ErrNotFound) {
		log.WithError(err).WithField("driver_id", id.Hex()).Warn("failed to populate driver")
	}
	r.drivers[id] = ref
	return ref
}

// publish sends an event. Delivery failures are logged and never fail the
// operation that caused them.
func (s *Service) publish(ctx context.Context, typ events.Type, owner, subject primitive.ObjectID, data interface{}) {
	event := events.Event{Type: typ, Owner: owner, Subject: subject, Data: data, At: s.now()}
	if err := s.events.Publish(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":   typ,
			"owner":   owner.Hex(),
			"subject": subject.Hex(),
		}).Warn("failed to publish event")
	}
}
