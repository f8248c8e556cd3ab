package services

import (
	"errors"
	"testing"
	"time"

	"water-delivery-api/apperrors"
	"water-delivery-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUnitPrice = 25.0

func placeCashOrder(t *testing.T, svc *OrderService, customerID uint, quantity int) *models.Order {
	t.Helper()
	order, err := svc.Create(CreateOrderInput{
		CustomerID:            customerID,
		Quantity:              quantity,
		DeliveryAddress:       "12 Riverside Drive",
		PreferredDeliveryTime: models.WindowMorning,
		PaymentMethod:         models.PaymentCash,
	})
	require.NoError(t, err)
	return order
}

// Full lifecycle: place (cash) → approve+assign → start transit → deliver.
func TestOrderLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	admin := createUser(t, db, "bob-admin", models.RoleAdmin)
	tester := createUser(t, db, "carol-tester", models.RoleTester)
	transporter := createUser(t, db, "dan-transporter", models.RoleTransporter)
	createApprovedContainer(t, db, tester.ID)

	order := placeCashOrder(t, svc, customer.ID, 4)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 100.0, order.TotalAmount) // 4 × 25
	assert.Equal(t, models.PaymentCash, order.PaymentMethod)
	assert.Nil(t, order.TransporterID)

	order, err := svc.Approve(order.ID, admin.ID, transporter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, order.Status)
	require.NotNil(t, order.TransporterID)
	assert.Equal(t, transporter.ID, *order.TransporterID)

	order, err = svc.StartTransit(order.ID, transporter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, order.Status)
	assert.NotNil(t, order.StartTime)

	order, err = svc.MarkDelivered(order.ID, transporter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredTime)

	// Audit trail covers every step
	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("id").Find(&history).Error)
	require.Len(t, history, 4)
	assert.Equal(t, models.StatusPending, history[0].ToStatus)
	assert.Equal(t, models.StatusDelivered, history[3].ToStatus)
}

func TestCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)
	customer := createUser(t, db, "alice", models.RoleCustomer)

	cases := []struct {
		name string
		in   CreateOrderInput
	}{
		{"zero quantity", CreateOrderInput{CustomerID: customer.ID, Quantity: 0, DeliveryAddress: "a", PreferredDeliveryTime: models.WindowMorning}},
		{"empty address", CreateOrderInput{CustomerID: customer.ID, Quantity: 1, PreferredDeliveryTime: models.WindowMorning}},
		{"bad window", CreateOrderInput{CustomerID: customer.ID, Quantity: 1, DeliveryAddress: "a", PreferredDeliveryTime: "midnight"}},
		{"bad method", CreateOrderInput{CustomerID: customer.ID, Quantity: 1, DeliveryAddress: "a", PreferredDeliveryTime: models.WindowMorning, PaymentMethod: "cheque"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}

	// Nothing was written
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateMpesaRequiresSettledPayment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)
	customer := createUser(t, db, "alice", models.RoleCustomer)

	mpesaInput := func(ref string) CreateOrderInput {
		return CreateOrderInput{
			CustomerID:            customer.ID,
			Quantity:              2,
			DeliveryAddress:       "12 Riverside Drive",
			PreferredDeliveryTime: models.WindowEvening,
			PaymentMethod:         models.PaymentMpesa,
			PaymentReference:      ref,
		}
	}

	// Unknown reference: no order row is created
	_, err := svc.Create(mpesaInput("MP-UNKNOWN"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPayment))

	// Initiated but not yet settled
	require.NoError(t, db.Create(&models.Payment{
		Reference: "MP-PENDING",
		Amount:    50,
		Status:    models.PaymentInitiated,
	}).Error)
	_, err = svc.Create(mpesaInput("MP-PENDING"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPayment))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	// Settled payment: order is created pending with the reference attached
	settlePayment(t, db, "MP123", 50)
	order, err := svc.Create(mpesaInput("MP123"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentMpesa, order.PaymentMethod)
	assert.Equal(t, "MP123", order.PaymentReference)

	// The same reference cannot pay for a second order
	_, err = svc.Create(mpesaInput("MP123"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))
}

func TestApproveOnlyFromPending(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	admin := createUser(t, db, "bob-admin", models.RoleAdmin)
	tester := createUser(t, db, "carol-tester", models.RoleTester)
	transporterA := createUser(t, db, "dan-transporter", models.RoleTransporter)
	transporterB := createUser(t, db, "eve-transporter", models.RoleTransporter)
	createApprovedContainer(t, db, tester.ID)

	order := placeCashOrder(t, svc, customer.ID, 1)
	_, err := svc.Approve(order.ID, admin.ID, transporterA.ID)
	require.NoError(t, err)

	// Repeating approve fails and leaves the assignment unchanged
	_, err = svc.Approve(order.ID, admin.ID, transporterB.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	reloaded, err := svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reloaded.Status)
	assert.Equal(t, transporterA.ID, *reloaded.TransporterID)

	// Approve on a delivered order fails without mutation
	_, err = svc.StartTransit(order.ID, transporterA.ID)
	require.NoError(t, err)
	_, err = svc.MarkDelivered(order.ID, transporterA.ID)
	require.NoError(t, err)

	_, err = svc.Approve(order.ID, admin.ID, transporterB.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	reloaded, err = svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, reloaded.Status)
	assert.Equal(t, transporterA.ID, *reloaded.TransporterID)
}

func TestApproveAuthorizationAndReferences(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	admin := createUser(t, db, "bob-admin", models.RoleAdmin)
	tester := createUser(t, db, "carol-tester", models.RoleTester)
	transporter := createUser(t, db, "dan-transporter", models.RoleTransporter)
	createApprovedContainer(t, db, tester.ID)

	order := placeCashOrder(t, svc, customer.ID, 1)

	// Only admins approve
	_, err := svc.Approve(order.ID, customer.ID, transporter.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))

	// Transporter must exist with the transporter role
	_, err = svc.Approve(order.ID, admin.ID, 9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Approve(order.ID, admin.ID, customer.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Missing order
	_, err = svc.Approve(9999, admin.ID, transporter.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestApproveRequiresApprovedContainer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	admin := createUser(t, db, "bob-admin", models.RoleAdmin)
	transporter := createUser(t, db, "dan-transporter", models.RoleTransporter)

	order := placeCashOrder(t, svc, customer.ID, 1)

	// The original system skipped this check; here the gate is explicit.
	_, err := svc.Approve(order.ID, admin.ID, transporter.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	reloaded, err := svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status)
}

func TestRejectIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	admin := createUser(t, db, "bob-admin", models.RoleAdmin)
	tester := createUser(t, db, "carol-tester", models.RoleTester)
	transporter := createUser(t, db, "dan-transporter", models.RoleTransporter)
	createApprovedContainer(t, db, tester.ID)

	order := placeCashOrder(t, svc, customer.ID, 1)

	rejected, err := svc.Reject(order.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.TransporterID)

	_, err = svc.Approve(order.ID, admin.ID, transporter.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

func TestTransitRequiresAssignedTransporter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	admin := createUser(t, db, "bob-admin", models.RoleAdmin)
	tester := createUser(t, db, "carol-tester", models.RoleTester)
	transporterA := createUser(t, db, "dan-transporter", models.RoleTransporter)
	transporterB := createUser(t, db, "eve-transporter", models.RoleTransporter)
	createApprovedContainer(t, db, tester.ID)

	order := placeCashOrder(t, svc, customer.ID, 1)
	_, err := svc.Approve(order.ID, admin.ID, transporterA.ID)
	require.NoError(t, err)

	// A different transporter cannot start the run
	_, err = svc.StartTransit(order.ID, transporterB.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))

	_, err = svc.StartTransit(order.ID, transporterA.ID)
	require.NoError(t, err)

	// Nor mark it delivered
	_, err = svc.MarkDelivered(order.ID, transporterB.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))

	reloaded, err := svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, reloaded.Status)
	assert.Nil(t, reloaded.DeliveredTime)
}

func TestStartTransitOnlyFromApproved(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	transporter := createUser(t, db, "dan-transporter", models.RoleTransporter)

	order := placeCashOrder(t, svc, customer.ID, 1)

	// pending → in_transit would skip approval
	_, err := svc.StartTransit(order.ID, transporter.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

func TestListingsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, testUnitPrice)

	customer := createUser(t, db, "alice", models.RoleCustomer)
	other := createUser(t, db, "zoe", models.RoleCustomer)

	first := placeCashOrder(t, svc, customer.ID, 1)
	second := placeCashOrder(t, svc, customer.ID, 2)
	placeCashOrder(t, svc, other.ID, 3)

	// created_at ties are possible within a fast test run, so force an
	// unambiguous ordering
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", second.ID).
		Update("created_at", first.CreatedAt.Add(time.Second)).Error)

	orders, err := svc.ListForUser(customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	all, err := svc.ListAll("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
