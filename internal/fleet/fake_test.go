package fleet

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory store that enforces the same unique indexes as
// the Mongo collections.
type fakeStore struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID]models.User
	vehicles   map[primitive.ObjectID]models.Vehicle
	drivers    map[primitive.ObjectID]models.Driver
	expenses   map[primitive.ObjectID]models.Expense
	checklists map[primitive.ObjectID]models.Checklist
	documents  map[primitive.ObjectID]models.Document

	// beforeSetAssigned runs before SetAssignedDriver writes, outside the lock.
	beforeSetAssigned func()
	// beforeInsertChecklist runs before InsertChecklist writes, outside the lock.
	beforeInsertChecklist func()
	// insertDriverErr fails the next InsertDriver.
	insertDriverErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[primitive.ObjectID]models.User{},
		vehicles:   map[primitive.ObjectID]models.Vehicle{},
		drivers:    map[primitive.ObjectID]models.Driver{},
		expenses:   map[primitive.ObjectID]models.Expense{},
		checklists: map[primitive.ObjectID]models.Checklist{},
		documents:  map[primitive.ObjectID]models.Document{},
	}
}

func (f *fakeStore) collections() Collections {
	return Collections{
		Users:      fakeUsers{f},
		Vehicles:   fakeVehicles{f},
		Drivers:    fakeDrivers{f},
		Expenses:   fakeExpenses{f},
		Checklists: fakeChecklists{f},
		Documents:  fakeDocuments{f},
		Tx:         fakeTx{},
	}
}

func dupErr(index string) error {
	return &db.DuplicateKeyError{Index: index, Err: errors.New("E11000 duplicate key " + index)}
}

func newID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeHasher struct{}

func (fakeHasher) HashPassword(p string) (string, error) { return "hashed:" + p, nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// users

type fakeUsers struct{ f *fakeStore }

func (u fakeUsers) InsertUser(_ context.Context, user *models.User) error {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	for _, other := range u.f.users {
		if user.Email != "" && other.Email == user.Email {
			return dupErr(db.IndexUserEmail)
		}
		if user.Mobile != "" && other.Mobile == user.Mobile {
			return dupErr(db.IndexUserMobile)
		}
	}
	newID(&user.ID)
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	u.f.users[user.ID] = *user
	return nil
}

func (u fakeUsers) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	user, ok := u.f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &user, nil
}

func (u fakeUsers) find(match func(models.User) bool) (*models.User, error) {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	for _, user := range u.f.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (u fakeUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return u.find(func(user models.User) bool { return user.Email == email })
}

func (u fakeUsers) FindUserByMobile(_ context.Context, mobile string) (*models.User, error) {
	return u.find(func(user models.User) bool { return user.Mobile == mobile })
}

func (u fakeUsers) UpdateUser(_ context.Context, user *models.User) error {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	if _, ok := u.f.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	u.f.users[user.ID] = *user
	return nil
}

func (u fakeUsers) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	if _, ok := u.f.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(u.f.users, id)
	return nil
}

func (u fakeUsers) UpdateLastLogin(_ context.Context, id primitive.ObjectID) error {
	u.f.mu.Lock()
	defer u.f.mu.Unlock()
	user, ok := u.f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	now := time.Now()
	user.LastLogin = &now
	u.f.users[id] = user
	return nil
}

// vehicles

type fakeVehicles struct{ f *fakeStore }

// uniqueLocked checks v against the vehicle indexes. Callers hold f.mu.
func (c fakeVehicles) uniqueLocked(v models.Vehicle) error {
	for id, other := range c.f.vehicles {
		if id == v.ID {
			continue
		}
		if other.VehicleNumber == v.VehicleNumber {
			return dupErr(db.IndexVehicleNumber)
		}
		if other.ChassisNumber == v.ChassisNumber {
			return dupErr(db.IndexChassisNumber)
		}
		if v.AssignedDriver != nil && other.AssignedDriver != nil && *other.AssignedDriver == *v.AssignedDriver {
			return dupErr(db.IndexAssignedDriver)
		}
	}
	return nil
}

func (c fakeVehicles) InsertVehicle(_ context.Context, v *models.Vehicle) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	newID(&v.ID)
	if err := c.uniqueLocked(*v); err != nil {
		return err
	}
	v.CreatedAt, v.UpdatedAt = time.Now(), time.Now()
	c.f.vehicles[v.ID] = *v
	return nil
}

func (c fakeVehicles) FindVehicleByID(_ context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	v, ok := c.f.vehicles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (c fakeVehicles) FindVehicles(_ context.Context, filter db.VehicleFilter) ([]models.Vehicle, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	out := []models.Vehicle{}
	for _, v := range c.f.vehicles {
		if filter.Owner != nil && v.Owner != *filter.Owner {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.AssignedDriver != nil && !sameID(v.AssignedDriver, filter.AssignedDriver) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleNumber < out[j].VehicleNumber })
	return out, nil
}

func (c fakeVehicles) UpdateVehicle(_ context.Context, v *models.Vehicle) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	stored, ok := c.f.vehicles[v.ID]
	if !ok {
		return db.ErrNotFound
	}
	next := *v
	next.AssignedDriver = stored.AssignedDriver
	if err := c.uniqueLocked(next); err != nil {
		return err
	}
	c.f.vehicles[v.ID] = next
	return nil
}

func (c fakeVehicles) SetAssignedDriver(_ context.Context, vehicleID primitive.ObjectID, driverID *primitive.ObjectID) error {
	if hook := c.f.beforeSetAssigned; hook != nil {
		c.f.beforeSetAssigned = nil
		hook()
	}
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	v, ok := c.f.vehicles[vehicleID]
	if !ok {
		return db.ErrNotFound
	}
	v.AssignedDriver = driverID
	if err := c.uniqueLocked(v); err != nil {
		return err
	}
	c.f.vehicles[vehicleID] = v
	return nil
}

func (c fakeVehicles) ClearAssignedDriver(_ context.Context, driverID primitive.ObjectID) (int64, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	var n int64
	for id, v := range c.f.vehicles {
		if v.AssignedDriver != nil && *v.AssignedDriver == driverID {
			v.AssignedDriver = nil
			c.f.vehicles[id] = v
			n++
		}
	}
	return n, nil
}

func (c fakeVehicles) DeleteVehicle(_ context.Context, id primitive.ObjectID) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	delete(c.f.vehicles, id)
	return nil
}

// drivers

type fakeDrivers struct{ f *fakeStore }

func (c fakeDrivers) InsertDriver(_ context.Context, d *models.Driver) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.f.insertDriverErr; err != nil {
		c.f.insertDriverErr = nil
		return err
	}
	for _, other := range c.f.drivers {
		if other.Mobile == d.Mobile {
			return dupErr(db.IndexDriverMobile)
		}
		if other.LicenseNumber == d.LicenseNumber {
			return dupErr(db.IndexDriverLicense)
		}
	}
	newID(&d.ID)
	stored := *d
	stored.AssignedVehicles = nil
	c.f.drivers[d.ID] = stored
	return nil
}

func (c fakeDrivers) FindDriverByID(_ context.Context, id primitive.ObjectID) (*models.Driver, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	d, ok := c.f.drivers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (c fakeDrivers) FindDriverByUser(_ context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	for _, d := range c.f.drivers {
		if d.User == userID {
			found := d
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (c fakeDrivers) FindDrivers(_ context.Context, filter db.DriverFilter) ([]models.Driver, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	out := []models.Driver{}
	for _, d := range c.f.drivers {
		if filter.Owner != nil && d.Owner != *filter.Owner {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c fakeDrivers) ReplaceDriver(_ context.Context, d *models.Driver) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.drivers[d.ID]; !ok {
		return db.ErrNotFound
	}
	stored := *d
	stored.AssignedVehicles = nil
	c.f.drivers[d.ID] = stored
	return nil
}

func (c fakeDrivers) DeleteDriver(_ context.Context, id primitive.ObjectID) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.drivers[id]; !ok {
		return db.ErrNotFound
	}
	delete(c.f.drivers, id)
	return nil
}

// expenses

type fakeExpenses struct{ f *fakeStore }

func (c fakeExpenses) InsertExpense(_ context.Context, e *models.Expense) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	newID(&e.ID)
	c.f.expenses[e.ID] = *e
	return nil
}

func (c fakeExpenses) FindExpenseByID(_ context.Context, id primitive.ObjectID) (*models.Expense, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	e, ok := c.f.expenses[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &e, nil
}

func expenseMatches(q db.ExpenseQuery, e models.Expense) bool {
	switch {
	case q.Owner != nil && e.Owner != *q.Owner,
		q.Vehicle != nil && e.Vehicle != *q.Vehicle,
		q.Driver != nil && e.Driver != *q.Driver,
		q.Status != "" && e.Status != q.Status,
		q.Type != "" && e.Type != q.Type:
		return false
	}
	return true
}

func (c fakeExpenses) FindExpenses(_ context.Context, q db.ExpenseQuery) ([]models.Expense, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	out := []models.Expense{}
	for _, e := range c.f.expenses {
		if expenseMatches(q, e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c fakeExpenses) UpdateExpenseDetails(_ context.Context, e *models.Expense, pendingOnly bool) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	stored, ok := c.f.expenses[e.ID]
	if !ok || (pendingOnly && stored.Status != models.ExpensePending) {
		return db.ErrNotFound
	}
	stored.Type, stored.Amount, stored.Description = e.Type, e.Amount, e.Description
	stored.Date, stored.Location, stored.BillPhoto = e.Date, e.Location, e.BillPhoto
	c.f.expenses[e.ID] = stored
	return nil
}

func (c fakeExpenses) ReviewExpense(_ context.Context, id primitive.ObjectID, r db.ExpenseReview) (*models.Expense, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	e, ok := c.f.expenses[id]
	if !ok || e.Status != models.ExpensePending {
		return nil, db.ErrNotFound
	}
	e.Status, e.ApprovedBy, e.ApprovedAt, e.RejectionReason = r.Status, r.ApprovedBy, r.ApprovedAt, r.RejectionReason
	c.f.expenses[id] = e
	return &e, nil
}

func (c fakeExpenses) DeleteExpense(_ context.Context, id primitive.ObjectID) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.expenses[id]; !ok {
		return db.ErrNotFound
	}
	delete(c.f.expenses, id)
	return nil
}

func (c fakeExpenses) SummarizeExpenses(_ context.Context, q db.ExpenseQuery) (*models.ExpenseSummary, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	summary := &models.ExpenseSummary{ByType: map[models.ExpenseType]float64{}}
	for _, e := range c.f.expenses {
		if !expenseMatches(q, e) {
			continue
		}
		switch e.Status {
		case models.ExpenseApproved:
			summary.TotalApproved += e.Amount
			summary.ByType[e.Type] += e.Amount
		case models.ExpensePending:
			summary.PendingAmount += e.Amount
			summary.PendingCount++
		}
	}
	return summary, nil
}

// checklists

type fakeChecklists struct{ f *fakeStore }

func (c fakeChecklists) InsertChecklist(_ context.Context, cl *models.Checklist) error {
	if hook := c.f.beforeInsertChecklist; hook != nil {
		c.f.beforeInsertChecklist = nil
		hook()
	}
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	for _, other := range c.f.checklists {
		if other.Vehicle == cl.Vehicle && other.Day == cl.Day {
			return dupErr(db.IndexChecklistDay)
		}
	}
	newID(&cl.ID)
	c.f.checklists[cl.ID] = *cl
	return nil
}

func (c fakeChecklists) FindChecklistByID(_ context.Context, id primitive.ObjectID) (*models.Checklist, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	cl, ok := c.f.checklists[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &cl, nil
}

func (c fakeChecklists) FindChecklistInWindow(_ context.Context, vehicleID primitive.ObjectID, from, to time.Time) (*models.Checklist, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	for _, cl := range c.f.checklists {
		if cl.Vehicle == vehicleID && !cl.Date.Before(from) && cl.Date.Before(to) {
			found := cl
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (c fakeChecklists) FindChecklists(_ context.Context, q db.ChecklistQuery) ([]models.Checklist, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	out := []models.Checklist{}
	for _, cl := range c.f.checklists {
		switch {
		case q.Owner != nil && cl.Owner != *q.Owner,
			q.Vehicle != nil && cl.Vehicle != *q.Vehicle,
			q.Driver != nil && cl.Driver != *q.Driver,
			q.Day != "" && cl.Day != q.Day,
			q.Since != nil && cl.Date.Before(*q.Since):
			continue
		}
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (c fakeChecklists) ReplaceChecklist(_ context.Context, cl *models.Checklist) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.checklists[cl.ID]; !ok {
		return db.ErrNotFound
	}
	c.f.checklists[cl.ID] = *cl
	return nil
}

func (c fakeChecklists) DeleteChecklist(_ context.Context, id primitive.ObjectID) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.checklists[id]; !ok {
		return db.ErrNotFound
	}
	delete(c.f.checklists, id)
	return nil
}

// documents

type fakeDocuments struct{ f *fakeStore }

func (c fakeDocuments) InsertDocument(_ context.Context, d *models.Document) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	newID(&d.ID)
	c.f.documents[d.ID] = *d
	return nil
}

func (c fakeDocuments) FindDocumentByID(_ context.Context, id primitive.ObjectID) (*models.Document, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	d, ok := c.f.documents[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (c fakeDocuments) FindDocuments(_ context.Context, q db.DocumentQuery) ([]models.Document, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	out := []models.Document{}
	for _, d := range c.f.documents {
		switch {
		case q.Owner != nil && d.Owner != *q.Owner,
			q.Vehicle != nil && d.Vehicle != *q.Vehicle,
			q.Type != "" && d.Type != q.Type,
			len(q.Status) > 0 && !hasStatus(q.Status, d.Status):
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

func (c fakeDocuments) ReplaceDocument(_ context.Context, d *models.Document) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.documents[d.ID]; !ok {
		return db.ErrNotFound
	}
	c.f.documents[d.ID] = *d
	return nil
}

func (c fakeDocuments) UpdateDocumentStatus(_ context.Context, id primitive.ObjectID, status models.DocumentStatus) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	d, ok := c.f.documents[id]
	if !ok {
		return db.ErrNotFound
	}
	d.Status = status
	c.f.documents[id] = d
	return nil
}

func (c fakeDocuments) DeleteDocument(_ context.Context, id primitive.ObjectID) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if _, ok := c.f.documents[id]; !ok {
		return db.ErrNotFound
	}
	delete(c.f.documents, id)
	return nil
}
