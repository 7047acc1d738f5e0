package fleet

import (
	"context"
	"strings"

	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListChecklists lists checklists matching filter, newest first. Drivers see
// only their own.
func (s *Service) ListChecklists(ctx context.Context, identity Identity, filter models.ChecklistFilter) ([]models.Checklist, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	q := db.ChecklistQuery{Owner: &a.owner, ChecklistFilter: filter}
	if a.driver != nil {
		q.Driver = &a.driver.ID
	}
	checklists, err := s.checklists.FindChecklists(ctx, q)
	if err != nil {
		return nil, storeErr(err, "Checklist")
	}
	r := s.newRefs()
	for i := range checklists {
		checklists[i].VehicleInfo = r.vehicle(ctx, checklists[i].Vehicle)
		checklists[i].DriverInfo = r.driver(ctx, checklists[i].Driver)
	}
	return checklists, nil
}

func (s *Service) visibleChecklist(ctx context.Context, a *actor, id primitive.ObjectID) (*models.Checklist, error) {
	checklist, err := s.checklists.FindChecklistByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Checklist")
	}
	if checklist.Owner != a.owner {
		return nil, ErrForbidden
	}
	if a.driver != nil && checklist.Driver != a.driver.ID {
		return nil, ErrForbidden
	}
	return checklist, nil
}

// GetChecklist returns one checklist with its vehicle and driver populated.
func (s *Service) GetChecklist(ctx context.Context, identity Identity, id primitive.ObjectID) (*models.Checklist, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	checklist, err := s.visibleChecklist(ctx, a, id)
	if err != nil {
		return nil, err
	}
	r := s.newRefs()
	checklist.VehicleInfo = r.vehicle(ctx, checklist.Vehicle)
	checklist.DriverInfo = r.driver(ctx, checklist.Driver)
	return checklist, nil
}

// UpdateChecklist updates the items, readings and remarks of a checklist and
// recomputes AllChecked. Its vehicle and day never change.
func (s *Service) UpdateChecklist(ctx context.Context, identity Identity, id primitive.ObjectID, req models.ChecklistRequest) (*models.Checklist, error) {
	a, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	checklist, err := s.visibleChecklist(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if req.Items != nil {
		checklist.Items = *req.Items
	}
	if req.OdometerReading != nil {
		checklist.OdometerReading = req.OdometerReading
	}
	if req.EngineHoursReading != nil {
		checklist.EngineHoursReading = req.EngineHoursReading
	}
	if req.Remarks != nil {
		checklist.Remarks = strings.TrimSpace(*req.Remarks)
	}
	checklist.Derive()
	if err := s.checklists.ReplaceChecklist(ctx, checklist); err != nil {
		return nil, storeErr(err, "Checklist")
	}
	return checklist, nil
}

// DeleteChecklist deletes a checklist of owner.
func (s *Service) DeleteChecklist(ctx context.Context, owner, id primitive.ObjectID) error {
	checklist, err := s.checklists.FindChecklistByID(ctx, id)
	if err != nil {
		return storeErr(err, "Checklist")
	}
	if checklist.Owner != owner {
		return ErrForbidden
	}
	return storeErr(s.checklists.DeleteChecklist(ctx, id), "Checklist")
}
