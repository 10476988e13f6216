package services

import (
	"context"
	"testing"

	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type donationFixture struct {
	svc   *DonationService
	user  *models.User
	admin *models.User
}

func newDonationFixture(t *testing.T) *donationFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &donationFixture{
		user:  testutil.CreateUser(t, db, "ada", "secret1", false),
		admin: testutil.CreateUser(t, db, "admin", "secret1", true),
	}
	testutil.CreateProduct(t, db, "Jollof Rice", 2500, models.CategoryGrainsAndLegumes, f.admin.ID)
	testutil.CreateProduct(t, db, "Honey Beans", 1000, models.CategoryBeansAffairs, f.admin.ID)
	testutil.CreateProduct(t, db, "Catfish", 3000, models.CategorySeafood, f.admin.ID)

	f.svc = NewDonationService(
		repositories.NewDonationRepository(db),
		repositories.NewProductRepository(db),
		repositories.NewAccountRepository(db),
	)
	return f
}

func TestCreateFoodShare(t *testing.T) {
	f := newDonationFixture(t)
	ctx := context.Background()

	share, err := f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Jollof Rice", Portions: []string{"1 plate", " ", "2 plates"}})
	require.NoError(t, err)
	assert.NotEmpty(t, share.ID)
	assert.Equal(t, []string{"1 plate", "2 plates"}, share.Portions)

	_, err = f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Jollof Rice", Portions: []string{"1 plate"}})
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Pounded Yam", Portions: []string{"1 wrap"}})
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Honey Beans"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUpdateFoodShare(t *testing.T) {
	f := newDonationFixture(t)
	ctx := context.Background()

	rice, err := f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Jollof Rice", Portions: []string{"1 plate"}})
	require.NoError(t, err)
	_, err = f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Catfish", Portions: []string{"1 fish"}})
	require.NoError(t, err)

	updated, err := f.svc.UpdateFoodShare(ctx, rice.ID, FoodShareInput{ProductName: "Honey Beans", Portions: []string{"1 bowl"}})
	require.NoError(t, err)
	assert.Equal(t, "Honey Beans", updated.ProductName)
	assert.Equal(t, []string{"1 bowl"}, updated.Portions)

	_, err = f.svc.UpdateFoodShare(ctx, rice.ID, FoodShareInput{ProductName: "Catfish", Portions: []string{"1 bowl"}})
	assert.Equal(t, KindConflict, KindOf(err), "name already listed")

	_, err = f.svc.UpdateFoodShare(ctx, rice.ID, FoodShareInput{ProductName: "Pounded Yam", Portions: []string{"1 bowl"}})
	assert.Equal(t, KindNotFound, KindOf(err), "product does not exist")

	_, err = f.svc.UpdateFoodShare(ctx, "missing", FoodShareInput{ProductName: "Honey Beans", Portions: []string{"1 bowl"}})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDeleteAndListFoodShares(t *testing.T) {
	f := newDonationFixture(t)
	ctx := context.Background()

	shares, err := f.svc.ListFoodShares(ctx)
	require.NoError(t, err)
	assert.NotNil(t, shares)
	assert.Empty(t, shares)

	rice, err := f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Jollof Rice", Portions: []string{"1 plate"}})
	require.NoError(t, err)

	got, err := f.svc.GetFoodShare(ctx, "Jollof Rice")
	require.NoError(t, err)
	assert.Equal(t, rice.ID, got.ID)

	require.NoError(t, f.svc.DeleteFoodShare(ctx, rice.ID))
	assert.Equal(t, KindNotFound, KindOf(f.svc.DeleteFoodShare(ctx, rice.ID)))

	_, err = f.svc.GetFoodShare(ctx, "Jollof Rice")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListProductNames(t *testing.T) {
	f := newDonationFixture(t)

	names, err := f.svc.ListProductNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []NameOption{
		{Key: "Catfish", Value: "Catfish"},
		{Key: "Honey Beans", Value: "Honey Beans"},
		{Key: "Jollof Rice", Value: "Jollof Rice"},
	}, names)
}

func TestCreateOrderShare(t *testing.T) {
	f := newDonationFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Jollof Rice", Portions: []string{"1 plate", "2 plates"}})
	require.NoError(t, err)

	claim := OrderShareInput{ProductName: "Jollof Rice", Portion: "2 plates", Name: "Ada Obi", Address: "1 Marina Road", Phone: "08031234567"}

	created, err := f.svc.CreateOrderShare(ctx, f.user.ID, claim)
	require.NoError(t, err)
	assert.Equal(t, models.ShareStatusSent, created.Status)
	assert.Equal(t, f.user.ID, created.UserID)

	t.Run("unknown account", func(t *testing.T) {
		_, err := f.svc.CreateOrderShare(ctx, "ghost", claim)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("missing field", func(t *testing.T) {
		in := claim
		in.Phone = ""
		_, err := f.svc.CreateOrderShare(ctx, f.user.ID, in)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("listing gone", func(t *testing.T) {
		in := claim
		in.ProductName = "Catfish"
		_, err := f.svc.CreateOrderShare(ctx, f.user.ID, in)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("portion not offered", func(t *testing.T) {
		in := claim
		in.Portion = "5 plates"
		_, err := f.svc.CreateOrderShare(ctx, f.user.ID, in)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	claims, err := f.svc.ListOrderShares(ctx)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestUpdateOrderShareStatus(t *testing.T) {
	f := newDonationFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateFoodShare(ctx, f.admin.ID, FoodShareInput{ProductName: "Jollof Rice", Portions: []string{"1 plate"}})
	require.NoError(t, err)
	claim, err := f.svc.CreateOrderShare(ctx, f.user.ID, OrderShareInput{
		ProductName: "Jollof Rice", Portion: "1 plate", Name: "Ada Obi", Address: "1 Marina Road", Phone: "08031234567",
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrderShareStatus(ctx, claim.ID, models.ShareStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.ShareStatusAccepted, updated.Status)

	_, err = f.svc.UpdateOrderShareStatus(ctx, claim.ID, "delivered")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.UpdateOrderShareStatus(ctx, "missing", models.ShareStatusRejected)
	assert.Equal(t, KindNotFound, KindOf(err))
}
