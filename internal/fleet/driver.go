package fleet

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultCompliance = 100

func applyDriver(d *models.Driver, req models.DriverRequest) {
	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Mobile != nil {
		d.Mobile = strings.TrimSpace(*req.Mobile)
	}
	if req.LicenseNumber != nil {
		d.LicenseNumber = strings.TrimSpace(*req.LicenseNumber)
	}
	if req.LicenseExpiry != nil {
		d.LicenseExpiry = *req.LicenseExpiry
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.ChecklistCompliance != nil {
		d.ChecklistCompliance = *req.ChecklistCompliance
	}
}

func validateDriver(d *models.Driver) error {
	switch {
	case d.Name == "":
		return invalid("name", "Please provide driver name")
	case d.Mobile == "":
		return invalid("mobile", "Please provide mobile number")
	case d.LicenseNumber == "":
		return invalid("licenseNumber", "Please provide license number")
	case d.LicenseExpiry.IsZero():
		return invalid("licenseExpiry", "Please provide license expiry date")
	case !d.Status.IsValid():
		return invalid("status", "Invalid driver status")
	case d.ChecklistCompliance < 0 || d.ChecklistCompliance > 100:
		return invalid("checklistCompliance", "Checklist compliance must be between 0 and 100")
	}
	return nil
}

// CreateDriver creates a driver together with its login user. The user is
// removed again when the driver cannot be stored.
func (s *Service) CreateDriver(ctx context.Context, owner primitive.ObjectID, req models.DriverRequest) (*models.Driver, error) {
	driver := &models.Driver{
		Status:              models.DriverActive,
		ChecklistCompliance: defaultCompliance,
		Owner:               owner,
	}
	applyDriver(driver, req)
	if err := validateDriver(driver); err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = models.DefaultDriverPassword
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         driver.Name,
		Mobile:       driver.Mobile,
		PasswordHash: hash,
		Role:         models.RoleDriver,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, storeErr(err, "User")
	}

	driver.User = user.ID
	if err := s.drivers.InsertDriver(ctx, driver); err != nil {
		if rmErr := s.users.DeleteUser(ctx, user.ID); rmErr != nil {
			log.WithError(rmErr).WithField("user_id", user.ID.Hex()).Error("failed to remove user of unsaved driver")
		}
		return nil, storeErr(err, "Driver")
	}
	driver.AssignedVehicles = []models.VehicleRef{}
	log.WithFields(log.Fields{"driver_id": driver.ID.Hex(), "owner": owner.Hex()}).Info("driver created")
	return driver, nil
}

// UpdateDriver updates the set fields of an owned driver and keeps its login
// user's name, mobile and password in step.
func (s *Service) UpdateDriver(ctx context.Context, owner, id primitive.ObjectID, req models.DriverRequest) (*models.Driver, error) {
	driver, err := s.ownedDriver(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	before := *driver
	applyDriver(driver, req)
	if err := validateDriver(driver); err != nil {
		return nil, err
	}
	if err := s.drivers.ReplaceDriver(ctx, driver); err != nil {
		return nil, storeErr(err, "Driver")
	}

	loginChanged := driver.Name != before.Name || driver.Mobile != before.Mobile || req.Password != ""
	if loginChanged && !driver.User.IsZero() {
		if err := s.syncDriverUser(ctx, driver, req.Password); err != nil {
			return nil, err
		}
	}
	if err := s.attachVehicles(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

func (s *Service) syncDriverUser(ctx context.Context, driver *models.Driver, password string) error {
	user, err := s.users.FindUserByID(ctx, driver.User)
	if err != nil {
		return storeErr(err, "User")
	}
	user.Name = driver.Name
	user.Mobile = driver.Mobile
	if password != "" {
		if user.PasswordHash, err = s.hasher.HashPassword(password); err != nil {
			return err
		}
	}
	return storeErr(s.users.UpdateUser(ctx, user), "User")
}

// GetDriver returns an owned driver with its assigned vehicles.
func (s *Service) GetDriver(ctx context.Context, owner, id primitive.ObjectID) (*models.Driver, error) {
	driver, err := s.ownedDriver(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachVehicles(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// ListDrivers lists the owner's drivers with their assigned vehicles.
func (s *Service) ListDrivers(ctx context.Context, owner primitive.ObjectID, status models.DriverStatus) ([]models.Driver, error) {
	drivers, err := s.drivers.FindDrivers(ctx, db.DriverFilter{Owner: &owner, Status: status})
	if err != nil {
		return nil, storeErr(err, "Driver")
	}
	vehicles, err := s.vehicles.FindVehicles(ctx, db.VehicleFilter{Owner: &owner})
	if err != nil {
		return nil, storeErr(err, "Vehicle")
	}
	byDriver := map[primitive.ObjectID][]models.VehicleRef{}
	for i := range vehicles {
		if d := vehicles[i].AssignedDriver; d != nil {
			byDriver[*d] = append(byDriver[*d], vehicles[i].Ref())
		}
	}
	for i := range drivers {
		drivers[i].AssignedVehicles = byDriver[drivers[i].ID]
		if drivers[i].AssignedVehicles == nil {
			drivers[i].AssignedVehicles = []models.VehicleRef{}
		}
	}
	return drivers, nil
}

// DriverProfile returns the driver record of a driver identity, or nil for
// owners.
func (s *Service) DriverProfile(ctx context.Context, identity Identity) (*models.Driver, error) {
	if identity.Role != models.RoleDriver {
		return nil, nil
	}
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	return a.driver, nil
}
