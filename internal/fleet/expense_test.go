package fleet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/rmc-fleet/internal/events"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type expenseFixture struct {
	*fixture
	drv *models.Driver
}

func newExpenseFixture(t *testing.T) *expenseFixture {
	f := newFixture(t)
	v := f.vehicle("MH12AB0001")
	d := f.driver("Ramesh", "9000000001")
	f.assign(v, d)
	return &expenseFixture{fixture: f, drv: d}
}

func (f *expenseFixture) submit(amount float64) *models.Expense {
	f.t.Helper()
	e, err := f.svc.SubmitExpense(f.ctx, driverIdentity(f.drv), expenseRequest(amount))
	require.NoError(f.t, err)
	return e
}

func TestApproveExpense(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.submit(1200)

	got, err := f.svc.ApproveExpense(f.ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, f.owner, *got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.Equal(t, f.now, *got.ApprovedAt)
	assert.Contains(t, f.pub.types(), events.ExpenseApproved)

	_, err = f.svc.ApproveExpense(f.ctx, f.owner, e.ID)
	assert.ErrorIs(t, err, ErrExpenseFinalized)
	_, err = f.svc.RejectExpense(f.ctx, f.owner, e.ID, "late")
	assert.ErrorIs(t, err, ErrExpenseFinalized)
}

func TestRejectExpense(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.submit(300)

	got, err := f.svc.RejectExpense(f.ctx, f.owner, e.ID, "  no bill  ")
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseRejected, got.Status)
	assert.Equal(t, "no bill", got.RejectionReason)
	assert.Nil(t, got.ApprovedBy)

	_, err = f.svc.ApproveExpense(f.ctx, f.owner, e.ID)
	assert.ErrorIs(t, err, ErrExpenseFinalized)
}

func TestReviewExpense_OtherOwner(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.submit(300)

	_, err := f.svc.ApproveExpense(f.ctx, primitive.NewObjectID(), e.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ApproveExpense(f.ctx, f.owner, primitive.NewObjectID())
	assert.EqualError(t, err, "Expense not found")
}

func TestUpdateExpense_DriverOnlyWhilePending(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.submit(300)

	got, err := f.svc.UpdateExpense(f.ctx, driverIdentity(f.drv), e.ID, models.ExpenseRequest{Amount: ptr(350.0)})
	require.NoError(t, err)
	assert.Equal(t, 350.0, got.Amount)
	assert.Equal(t, models.ExpensePending, got.Status)

	_, err = f.svc.ApproveExpense(f.ctx, f.owner, e.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateExpense(f.ctx, driverIdentity(f.drv), e.ID, models.ExpenseRequest{Amount: ptr(999.0)})
	assert.ErrorIs(t, err, ErrExpenseFinalized)
	assert.ErrorIs(t, f.svc.DeleteExpense(f.ctx, driverIdentity(f.drv), e.ID), ErrExpenseFinalized)

	// Owners may still correct the details; the review stays.
	got, err = f.svc.UpdateExpense(f.ctx, f.ownerIdentity(), e.ID, models.ExpenseRequest{Description: ptr("corrected")})
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseApproved, got.Status)
	stored, err := f.svc.GetExpense(f.ctx, f.ownerIdentity(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "corrected", stored.Description)
	assert.Equal(t, models.ExpenseApproved, stored.Status)
}

func TestExpenses_DriverScope(t *testing.T) {
	f := newExpenseFixture(t)
	mine := f.submit(100)

	v2 := f.vehicle("MH12AB0002")
	d2 := f.driver("Suresh", "9000000002")
	f.assign(v2, d2)
	theirs, err := f.svc.SubmitExpense(f.ctx, driverIdentity(d2), expenseRequest(200))
	require.NoError(t, err)

	list, err := f.svc.ListExpenses(f.ctx, driverIdentity(f.drv), models.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	require.NotNil(t, list[0].DriverInfo)
	assert.Equal(t, "Ramesh", list[0].DriverInfo.Name)

	all, err := f.svc.ListExpenses(f.ctx, f.ownerIdentity(), models.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.GetExpense(f.ctx, driverIdentity(f.drv), theirs.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteExpense(f.ctx, driverIdentity(f.drv), theirs.ID), ErrForbidden)

	require.NoError(t, f.svc.DeleteExpense(f.ctx, driverIdentity(f.drv), mine.ID))
	assert.Equal(t, 1, f.countExpenses())
}

func TestExpenseSummary(t *testing.T) {
	f := newExpenseFixture(t)
	approved := f.submit(1000)
	f.submit(250)
	rejected := f.submit(75)

	_, err := f.svc.ApproveExpense(f.ctx, f.owner, approved.ID)
	require.NoError(t, err)
	_, err = f.svc.RejectExpense(f.ctx, f.owner, rejected.ID, "")
	require.NoError(t, err)

	summary, err := f.svc.ExpenseSummary(f.ctx, f.ownerIdentity())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, summary.TotalApproved)
	assert.Equal(t, 250.0, summary.PendingAmount)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 1000.0, summary.ByType[models.ExpenseFuel])
}

func TestExpenseBill(t *testing.T) {
	f := newExpenseFixture(t)
	plain := f.submit(100)

	_, err := f.svc.ExpenseBill(f.ctx, f.ownerIdentity(), plain.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "No bill photo attached to this expense")

	req := expenseRequest(100)
	req.BillPhoto = &models.Attachment{Name: "bill.jpg", ContentType: "image/jpeg", Data: "/9j/4AAQ"}
	withBill, err := f.svc.SubmitExpense(f.ctx, driverIdentity(f.drv), req)
	require.NoError(t, err)

	bill, err := f.svc.ExpenseBill(f.ctx, driverIdentity(f.drv), withBill.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", bill.ContentType)
}

func TestSubmitExpense_PublishFailureIgnored(t *testing.T) {
	f := newExpenseFixture(t)
	f.pub.err = errors.New("broker down")

	e, err := f.svc.SubmitExpense(f.ctx, driverIdentity(f.drv), expenseRequest(100))
	require.NoError(t, err)
	assert.Equal(t, models.ExpensePending, e.Status)
	assert.Equal(t, 1, f.countExpenses())
}
