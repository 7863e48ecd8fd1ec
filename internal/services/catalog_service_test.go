package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"catalogd/internal/models"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	productRepo *MockProductRepository
	store       *MockObjectStorage
	cache       *MockCacheService
	service     CatalogService
	context     context.Context
}

func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.productRepo = &MockProductRepository{}
	suite.store = &MockObjectStorage{}
	suite.cache = &MockCacheService{}
	suite.service = NewCatalogService(suite.productRepo, suite.store, suite.cache, zap.NewNop())
	suite.context = context.Background()
}

func (suite *CatalogServiceTestSuite) TearDownTest() {
	suite.productRepo.AssertExpectations(suite.T())
	suite.store.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestCatalogServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}

func storedProduct(id int64, fileName string) *models.Product {
	return &models.Product{
		ID:          id,
		Name:        "Espresso Beans",
		Description: "Dark roast, 1kg",
		Price:       12.5,
		Image: &models.Image{
			ID:          id + 100,
			FileName:    fileName,
			URL:         "http://localhost:9000/catalog-images/" + fileName,
			ContentType: "image/png",
			Size:        2048,
		},
	}
}

func (suite *CatalogServiceTestSuite) TestListProducts_ReplacesCanonicalURLWithSignedURL() {
	suite.productRepo.On("List", suite.context).
		Return([]*models.Product{storedProduct(1, "a.png"), storedProduct(2, "b.png")}, nil).Once()
	suite.store.On("SignedURL", suite.context, "a.png").
		Return("https://signed.example/a.png?X-Amz-Expires=36000", nil).Once()
	suite.store.On("SignedURL", suite.context, "b.png").
		Return("https://signed.example/b.png?X-Amz-Expires=36000", nil).Once()

	products, err := suite.service.ListProducts(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), products, 2)
	for _, product := range products {
		assert.Contains(suite.T(), product.Image.URL, "signed.example")
		assert.NotContains(suite.T(), product.Image.URL, "localhost:9000")
	}
}

func (suite *CatalogServiceTestSuite) TestListProducts_SigningFailureFailsTheRead() {
	suite.productRepo.On("List", suite.context).
		Return([]*models.Product{storedProduct(1, "a.png")}, nil).Once()
	suite.store.On("SignedURL", suite.context, "a.png").
		Return("", errors.New("presign failed")).Once()

	products, err := suite.service.ListProducts(suite.context)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), products)
}

func (suite *CatalogServiceTestSuite) TestFindByID_SignsOnCacheMiss() {
	suite.cache.On("GetProduct", suite.context, int64(1)).Return(nil, nil).Once()
	suite.productRepo.On("GetByID", suite.context, int64(1)).
		Return(storedProduct(1, "a.png"), nil).Once()
	suite.cache.On("SetProduct", suite.context, mock.Anything, productCacheTTL).Return(nil).Once()
	suite.store.On("SignedURL", suite.context, "a.png").
		Return("https://signed.example/a.png", nil).Once()

	product, err := suite.service.FindByID(suite.context, 1)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://signed.example/a.png", product.Image.URL)
}

func (suite *CatalogServiceTestSuite) TestFindByID_CacheHitSkipsDatabase() {
	suite.cache.On("GetProduct", suite.context, int64(1)).
		Return(storedProduct(1, "a.png"), nil).Once()
	suite.store.On("SignedURL", suite.context, "a.png").
		Return("https://signed.example/a.png", nil).Once()

	product, err := suite.service.FindByID(suite.context, 1)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://signed.example/a.png", product.Image.URL)
	suite.productRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything)
}

func (suite *CatalogServiceTestSuite) TestFindByID_AbsentProductIsNotAnError() {
	suite.cache.On("GetProduct", suite.context, int64(404)).Return(nil, nil).Once()
	suite.productRepo.On("GetByID", suite.context, int64(404)).Return(nil, nil).Once()

	product, err := suite.service.FindByID(suite.context, 404)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), product)
}

func (suite *CatalogServiceTestSuite) TestAddProduct_ValidationRunsBeforeStorage() {
	_, err := suite.service.AddProduct(suite.context,
		&models.ProductCreate{Name: "", Price: 1}, strings.NewReader("x"), 1, "a.png", "image/png")
	assert.ErrorIs(suite.T(), err, ErrNameRequired)

	_, err = suite.service.AddProduct(suite.context,
		&models.ProductCreate{Name: "Beans", Price: 0}, strings.NewReader("x"), 1, "a.png", "image/png")
	assert.ErrorIs(suite.T(), err, ErrInvalidPrice)

	suite.store.AssertNotCalled(suite.T(), "Store",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.productRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *CatalogServiceTestSuite) TestAddProduct_StoresObjectThenPersistsCanonicalURL() {
	payload := bytes.NewReader([]byte("png bytes"))
	suite.store.On("Store", suite.context, payload, int64(9), mock.MatchedBy(func(name string) bool {
		return strings.HasSuffix(name, ".png")
	}), "image/png").Return("http://localhost:9000/catalog-images/key.png", nil).Once()
	suite.productRepo.On("Create", suite.context, mock.MatchedBy(func(p *models.Product) bool {
		return p.Image != nil && p.Image.URL == "http://localhost:9000/catalog-images/key.png" &&
			p.Image.ContentType == "image/png" && p.Image.Size == 9
	})).Return(nil).Once()

	product, err := suite.service.AddProduct(suite.context,
		&models.ProductCreate{Name: "Beans", Description: "Dark roast", Price: 12.5},
		payload, 9, "beans.png", "image/png")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "http://localhost:9000/catalog-images/key.png", product.Image.URL)
}

func (suite *CatalogServiceTestSuite) TestAddProduct_StorageFailureSkipsPersistence() {
	suite.store.On("Store", suite.context, mock.Anything, int64(3), mock.Anything, "image/png").
		Return("", errors.New("bucket unavailable")).Once()

	_, err := suite.service.AddProduct(suite.context,
		&models.ProductCreate{Name: "Beans", Price: 12.5},
		strings.NewReader("abc"), 3, "beans.png", "image/png")
	assert.Error(suite.T(), err)
	suite.productRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *CatalogServiceTestSuite) TestDeleteProduct_InvalidatesCache() {
	suite.productRepo.On("Delete", suite.context, int64(1)).Return(nil).Once()
	suite.cache.On("DeleteProduct", suite.context, int64(1)).Return(nil).Once()

	err := suite.service.DeleteProduct(suite.context, 1)
	assert.NoError(suite.T(), err)
}
