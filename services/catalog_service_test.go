package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/sayfoods/sayfoods-api/models"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG)
}

func intPtr(v int) *int { return &v }

func newCatalog(t *testing.T) (*CatalogService, *MockImageService, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	images := NewMockImageService()
	admin := testutil.CreateUser(t, db, "admin", "secret1", true)
	return NewCatalogService(repositories.NewProductRepository(db), images), images, db, admin
}

func productInput(name string) ProductInput {
	return ProductInput{
		Name:        name,
		Description: "Smoky party rice",
		Price:       2500,
		Category:    "grains, legumes and pulses",
		Image:       pngDataURL(),
		Stock:       intPtr(12),
	}
}

func TestCatalogCreate_UploadsImageAndNormalizesCategory(t *testing.T) {
	svc, images, _, admin := newCatalog(t)

	product, err := svc.Create(context.Background(), admin.ID, productInput("Jollof Rice"))
	require.NoError(t, err)

	assert.Equal(t, "Jollof Rice", product.Name)
	assert.Equal(t, models.CategoryGrainsAndLegumes, product.Category)
	assert.Equal(t, admin.ID, product.CreatorID)
	assert.True(t, images.ImageExists(product.ImageKey))
	assert.Contains(t, product.ImageURL, product.ImageKey)
}

func TestCatalogCreate_DuplicateNormalizedName(t *testing.T) {
	svc, images, _, admin := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin.ID, productInput("Jollof Rice"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin.ID, productInput("  jollof   RICE! "))
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, 1, images.ImageCount(), "no image should be uploaded for a rejected product")

	_, err = svc.Create(ctx, admin.ID, productInput("Jollof - Rice"))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCatalogCreate_DistinctNonASCIINames(t *testing.T) {
	svc, _, _, admin := newCatalog(t)
	ctx := context.Background()

	// Ẹ̀wà and Ẹ̀wọ̀ only differ in letters outside ASCII
	ewa, err := svc.Create(ctx, admin.ID, productInput("\u1eb8\u0300w\u00e0"))
	require.NoError(t, err)
	ewo, err := svc.Create(ctx, admin.ID, productInput("\u1eb8\u0300w\u1ecd\u0300"))
	require.NoError(t, err)
	assert.NotEqual(t, ewa.ID, ewo.ID)
}

func TestCatalogCreate_ValidationErrors(t *testing.T) {
	svc, images, _, admin := newCatalog(t)

	tests := []struct {
		name   string
		mutate func(*ProductInput)
		code   string
	}{
		{"missing name", func(in *ProductInput) { in.Name = " " }, "VALIDATION_ERROR"},
		{"missing description", func(in *ProductInput) { in.Description = "" }, "VALIDATION_ERROR"},
		{"zero price", func(in *ProductInput) { in.Price = 0 }, "VALIDATION_ERROR"},
		{"missing stock", func(in *ProductInput) { in.Stock = nil }, "VALIDATION_ERROR"},
		{"unknown category", func(in *ProductInput) { in.Category = "Desserts" }, "VALIDATION_ERROR"},
		{"missing image", func(in *ProductInput) { in.Image = "" }, "VALIDATION_ERROR"},
		{"image is a link", func(in *ProductInput) { in.Image = "https://example.com/rice.png" }, "INVALID_IMAGE"},
		{"image is text", func(in *ProductInput) {
			in.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))
		}, "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := productInput("Jollof Rice")
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), admin.ID, in)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))

			var svcErr *Error
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.code, svcErr.Code)
		})
	}
	assert.Equal(t, 0, images.ImageCount())
}

func TestCatalogEdit_KeepsImageUnlessDataURL(t *testing.T) {
	svc, images, _, admin := newCatalog(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, admin.ID, productInput("Jollof Rice"))
	require.NoError(t, err)
	originalKey := product.ImageKey

	in := productInput("Jollof Rice Special")
	in.Image = product.ImageURL
	edited, err := svc.Edit(ctx, product.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Jollof Rice Special", edited.Name)
	assert.Equal(t, originalKey, edited.ImageKey)

	replaced, err := svc.Edit(ctx, product.ID, productInput("Jollof Rice Special"))
	require.NoError(t, err)
	assert.NotEqual(t, originalKey, replaced.ImageKey)
	assert.False(t, images.ImageExists(originalKey), "old image should be deleted")
	assert.True(t, images.ImageExists(replaced.ImageKey))
}

func TestCatalogEdit_RenameConflict(t *testing.T) {
	svc, _, _, admin := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin.ID, productInput("Jollof Rice"))
	require.NoError(t, err)
	beans, err := svc.Create(ctx, admin.ID, productInput("Honey Beans"))
	require.NoError(t, err)

	_, err = svc.Edit(ctx, beans.ID, productInput("jollof rice"))
	assert.Equal(t, KindConflict, KindOf(err))

	// Renaming to itself is allowed
	_, err = svc.Edit(ctx, beans.ID, productInput("Honey Beans"))
	assert.NoError(t, err)
}

func TestCatalogEdit_NotFound(t *testing.T) {
	svc, _, _, _ := newCatalog(t)

	_, err := svc.Edit(context.Background(), "missing", productInput("Jollof Rice"))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCatalogDelete(t *testing.T) {
	svc, images, _, admin := newCatalog(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, admin.ID, productInput("Jollof Rice"))
	require.NoError(t, err)

	id, err := svc.Delete(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, id)
	assert.False(t, images.ImageExists(product.ImageKey))

	_, err = svc.Delete(ctx, product.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.GetByName(ctx, "Jollof Rice")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCatalogListAndCategory(t *testing.T) {
	svc, _, db, admin := newCatalog(t)
	ctx := context.Background()

	for _, name := range []string{"Catfish", "Tilapia", "Prawns", "Crab", "Snail"} {
		testutil.CreateProduct(t, db, name, 3000, models.CategorySeafood, admin.ID)
	}
	testutil.CreateProduct(t, db, "Yam", 800, models.CategoryTubersAndRoots, admin.ID)

	all, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all.Items, 6)
	assert.False(t, all.HasMore)

	seafood, err := svc.ListByCategory(ctx, "SEAFOOD", 1)
	require.NoError(t, err)
	assert.Len(t, seafood.Items, CategoryPageSize)
	assert.Equal(t, 2, seafood.TotalPages)
	assert.True(t, seafood.HasMore)
	for _, p := range seafood.Items {
		assert.NotEmpty(t, p.ImageURL)
	}

	_, err = svc.ListByCategory(ctx, "Desserts", 1)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCatalogRandomCategory(t *testing.T) {
	svc, _, db, admin := newCatalog(t)
	ctx := context.Background()

	_, err := svc.RandomCategory(ctx)
	assert.Equal(t, KindNotFound, KindOf(err), "no category has enough products yet")

	testutil.CreateProduct(t, db, "Yam", 800, models.CategoryTubersAndRoots, admin.ID)
	for _, name := range []string{"Catfish", "Tilapia", "Prawns"} {
		testutil.CreateProduct(t, db, name, 3000, models.CategorySeafood, admin.ID)
	}

	// Put the sparse category first so the walk has to skip it
	svc.shuffle = func(c []models.Category) {
		for i, cat := range c {
			if cat == models.CategoryTubersAndRoots {
				c[0], c[i] = c[i], c[0]
			}
		}
	}

	result, err := svc.RandomCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySeafood, result.Category)
	assert.Len(t, result.Products, 3)
}

func TestCatalogSearch(t *testing.T) {
	svc, _, db, admin := newCatalog(t)
	ctx := context.Background()

	testutil.CreateProduct(t, db, "Jollof Rice", 2500, models.CategoryGrainsAndLegumes, admin.ID)
	testutil.CreateProduct(t, db, "Fried Rice", 2500, models.CategoryGrainsAndLegumes, admin.ID)
	testutil.CreateProduct(t, db, "Honey Beans", 1000, models.CategoryBeansAffairs, admin.ID)

	page, err := svc.Search(ctx, "RICE", 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.Search(ctx, "100%", 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = svc.Search(ctx, " r ", 1)
	assert.Equal(t, KindValidation, KindOf(err))
}
