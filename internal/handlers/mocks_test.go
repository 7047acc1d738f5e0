package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// anyCtx matches the request context passed to every service call.
var anyCtx = mock.Anything

// result converts the first mocked return value, allowing nil.
func result[T any](args mock.Arguments) (T, error) {
	var zero T
	if v := args.Get(0); v != nil {
		return v.(T), args.Error(1)
	}
	return zero, args.Error(1)
}

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return result[*models.User](m.Called(ctx, id))
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return result[*models.User](m.Called(ctx, email))
}

func (m *MockUserCollection) FindUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return result[*models.User](m.Called(ctx, mobile))
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

// MockFleet is a mock implementation of FleetService
type MockFleet struct {
	mock.Mock
}

func (m *MockFleet) CreateVehicle(ctx context.Context, owner primitive.ObjectID, req models.VehicleRequest) (*models.Vehicle, error) {
	return result[*models.Vehicle](m.Called(ctx, owner, req))
}

func (m *MockFleet) UpdateVehicle(ctx context.Context, owner, id primitive.ObjectID, req models.VehicleRequest) (*models.Vehicle, error) {
	return result[*models.Vehicle](m.Called(ctx, owner, id, req))
}

func (m *MockFleet) ListVehicles(ctx context.Context, identity fleet.Identity, status models.VehicleStatus) ([]models.Vehicle, error) {
	return result[[]models.Vehicle](m.Called(ctx, identity, status))
}

func (m *MockFleet) GetVehicle(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Vehicle, error) {
	return result[*models.Vehicle](m.Called(ctx, identity, id))
}

func (m *MockFleet) VehicleDetails(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.VehicleDetails, error) {
	return result[*models.VehicleDetails](m.Called(ctx, identity, id))
}

func (m *MockFleet) DeleteVehicle(ctx context.Context, owner, id primitive.ObjectID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *MockFleet) AssignDriverToVehicle(ctx context.Context, owner, vehicleID primitive.ObjectID, driverID *primitive.ObjectID) (*models.Vehicle, error) {
	return result[*models.Vehicle](m.Called(ctx, owner, vehicleID, driverID))
}

func (m *MockFleet) CreateDriver(ctx context.Context, owner primitive.ObjectID, req models.DriverRequest) (*models.Driver, error) {
	return result[*models.Driver](m.Called(ctx, owner, req))
}

func (m *MockFleet) UpdateDriver(ctx context.Context, owner, id primitive.ObjectID, req models.DriverRequest) (*models.Driver, error) {
	return result[*models.Driver](m.Called(ctx, owner, id, req))
}

func (m *MockFleet) GetDriver(ctx context.Context, owner, id primitive.ObjectID) (*models.Driver, error) {
	return result[*models.Driver](m.Called(ctx, owner, id))
}

func (m *MockFleet) ListDrivers(ctx context.Context, owner primitive.ObjectID, status models.DriverStatus) ([]models.Driver, error) {
	return result[[]models.Driver](m.Called(ctx, owner, status))
}

func (m *MockFleet) DeleteDriver(ctx context.Context, owner, id primitive.ObjectID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *MockFleet) AssignVehicleToDriver(ctx context.Context, owner, driverID, vehicleID primitive.ObjectID) (*models.Driver, error) {
	return result[*models.Driver](m.Called(ctx, owner, driverID, vehicleID))
}

func (m *MockFleet) DriverProfile(ctx context.Context, identity fleet.Identity) (*models.Driver, error) {
	return result[*models.Driver](m.Called(ctx, identity))
}

func (m *MockFleet) SubmitChecklist(ctx context.Context, identity fleet.Identity, req models.ChecklistRequest) (*models.Checklist, error) {
	return result[*models.Checklist](m.Called(ctx, identity, req))
}

func (m *MockFleet) TodayChecklist(ctx context.Context, identity fleet.Identity, vehicleID *primitive.ObjectID) (*models.Checklist, error) {
	return result[*models.Checklist](m.Called(ctx, identity, vehicleID))
}

func (m *MockFleet) ListChecklists(ctx context.Context, identity fleet.Identity, filter models.ChecklistFilter) ([]models.Checklist, error) {
	return result[[]models.Checklist](m.Called(ctx, identity, filter))
}

func (m *MockFleet) GetChecklist(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Checklist, error) {
	return result[*models.Checklist](m.Called(ctx, identity, id))
}

func (m *MockFleet) UpdateChecklist(ctx context.Context, identity fleet.Identity, id primitive.ObjectID, req models.ChecklistRequest) (*models.Checklist, error) {
	return result[*models.Checklist](m.Called(ctx, identity, id, req))
}

func (m *MockFleet) DeleteChecklist(ctx context.Context, owner, id primitive.ObjectID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *MockFleet) SubmitExpense(ctx context.Context, identity fleet.Identity, req models.ExpenseRequest) (*models.Expense, error) {
	return result[*models.Expense](m.Called(ctx, identity, req))
}

func (m *MockFleet) ListExpenses(ctx context.Context, identity fleet.Identity, filter models.ExpenseFilter) ([]models.Expense, error) {
	return result[[]models.Expense](m.Called(ctx, identity, filter))
}

func (m *MockFleet) ExpenseSummary(ctx context.Context, identity fleet.Identity) (*models.ExpenseSummary, error) {
	return result[*models.ExpenseSummary](m.Called(ctx, identity))
}

func (m *MockFleet) GetExpense(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Expense, error) {
	return result[*models.Expense](m.Called(ctx, identity, id))
}

func (m *MockFleet) ExpenseBill(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) (*models.Attachment, error) {
	return result[*models.Attachment](m.Called(ctx, identity, id))
}

func (m *MockFleet) UpdateExpense(ctx context.Context, identity fleet.Identity, id primitive.ObjectID, req models.ExpenseRequest) (*models.Expense, error) {
	return result[*models.Expense](m.Called(ctx, identity, id, req))
}

func (m *MockFleet) DeleteExpense(ctx context.Context, identity fleet.Identity, id primitive.ObjectID) error {
	return m.Called(ctx, identity, id).Error(0)
}

func (m *MockFleet) ApproveExpense(ctx context.Context, owner, id primitive.ObjectID) (*models.Expense, error) {
	return result[*models.Expense](m.Called(ctx, owner, id))
}

func (m *MockFleet) RejectExpense(ctx context.Context, owner, id primitive.ObjectID, reason string) (*models.Expense, error) {
	return result[*models.Expense](m.Called(ctx, owner, id, reason))
}

func (m *MockFleet) CreateDocument(ctx context.Context, owner primitive.ObjectID, req models.DocumentRequest) (*models.Document, error) {
	return result[*models.Document](m.Called(ctx, owner, req))
}

func (m *MockFleet) UpdateDocument(ctx context.Context, owner, id primitive.ObjectID, req models.DocumentRequest) (*models.Document, error) {
	return result[*models.Document](m.Called(ctx, owner, id, req))
}

func (m *MockFleet) GetDocument(ctx context.Context, owner, id primitive.ObjectID) (*models.Document, error) {
	return result[*models.Document](m.Called(ctx, owner, id))
}

func (m *MockFleet) DocumentFile(ctx context.Context, owner, id primitive.ObjectID) (*models.Attachment, error) {
	return result[*models.Attachment](m.Called(ctx, owner, id))
}

func (m *MockFleet) DeleteDocument(ctx context.Context, owner, id primitive.ObjectID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *MockFleet) ListDocuments(ctx context.Context, owner primitive.ObjectID, filter models.DocumentFilter) ([]models.Document, error) {
	return result[[]models.Document](m.Called(ctx, owner, filter))
}

func (m *MockFleet) ExpiringDocuments(ctx context.Context, owner primitive.ObjectID) ([]models.Document, error) {
	return result[[]models.Document](m.Called(ctx, owner))
}

var _ FleetService = (*MockFleet)(nil)
