package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"Pedalize/cache"
	"Pedalize/middleware"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// 同一個快取key同時只讓一個請求讀資料庫
var catalogGroup singleflight.Group

// 同一個key的載入由多個請求共用，不跟隨發起者的取消
func cachedProducts(c *gin.Context, pc cache.ProductCache, key string, load func(ctx context.Context) ([]models.Product, error)) ([]models.Product, error) {
	ctx := c.Request.Context()
	products, err := pc.GetProducts(ctx, key)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logError(c, "Cache", "cannot read %s: %v", key, err)
	}

	v, err, _ := catalogGroup.Do(key, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		products, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if products == nil {
			products = []models.Product{}
		}
		if err := pc.SetProducts(loadCtx, key, products); err != nil {
			logError(c, "Cache", "cannot write %s: %v", key, err)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]models.Product), nil
}

func productExists(db *gorm.DB, productID string) (bool, error) {
	var count int64
	err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 查詢所有商品
func GetAllProductsHandler(c *gin.Context, db *gorm.DB, pc cache.ProductCache) {
	products, err := cachedProducts(c, pc, cache.AllProductsKey(), func(ctx context.Context) ([]models.Product, error) {
		var products []models.Product
		err := db.WithContext(ctx).Order("id").Find(&products).Error
		return products, err
	})
	if err != nil {
		logError(c, "GetAllProducts", "cannot fetch all products: %v", err)
		respondError(c, http.StatusInternalServerError, codeGetAllProducts, "Cannot get products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// 分頁查詢商品，頁數從0開始
func GetProductPageHandler(c *gin.Context, db *gorm.DB, pc cache.ProductCache, perPage int) {
	page := 0
	if pageParam := c.Query("page"); pageParam != "" {
		var err error
		page, err = strconv.Atoi(pageParam)
		if err != nil {
			respondError(c, http.StatusBadRequest, codeCatalogBadRequest, "The page must be an integer")
			return
		}
	}
	if page < 0 {
		page = 0
	}
	// page*perPage會溢位的頁數一定超過最後一頁
	if perPage > 0 && page > math.MaxInt/perPage {
		c.JSON(http.StatusOK, []models.Product{})
		return
	}

	products, err := cachedProducts(c, pc, cache.PageKey(page), func(ctx context.Context) ([]models.Product, error) {
		var products []models.Product
		err := db.WithContext(ctx).
			Order("id").
			Offset(page * perPage).
			Limit(perPage).
			Find(&products).
			Error
		return products, err
	})
	if err != nil {
		logError(c, "GetProductPage", "cannot fetch the product page %d: %v", page, err)
		respondError(c, http.StatusInternalServerError, codeGetProductPage, "Cannot get the product page")
		return
	}

	c.JSON(http.StatusOK, products)
}

// 查詢商品詳細資料
func GetProductDetailHandler(c *gin.Context, db *gorm.DB, pc cache.ProductCache) {
	productID := c.Param("id")
	ctx := c.Request.Context()

	product, err := pc.GetProduct(ctx, productID)
	if err == nil {
		c.JSON(http.StatusOK, product)
		return
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logError(c, "Cache", "cannot read product %s: %v", productID, err)
	}

	product = &models.Product{}
	err = db.WithContext(ctx).Where("id = ?", productID).First(product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, codeGetProduct, "Cannot get the product")
			return
		}
		logError(c, "GetProductDetail", "cannot fetch the product '%s': %v", productID, err)
		respondError(c, http.StatusInternalServerError, codeGetProduct, "Cannot get the product")
		return
	}

	if err := pc.SetProduct(ctx, product); err != nil {
		logError(c, "Cache", "cannot write product %s: %v", productID, err)
	}

	c.JSON(http.StatusOK, product)
}

// 查詢商品規格
func GetProductCharacteristicsHandler(c *gin.Context, db *gorm.DB) {
	productID := c.Param("id")

	characteristics := []models.ProductCharacteristic{}
	err := db.WithContext(c.Request.Context()).
		Where("product = ?", productID).
		Order("id").
		Find(&characteristics).
		Error
	if err != nil {
		logError(c, "GetProductCharacteristics", "cannot fetch the product characteristics: %v", err)
		respondError(c, http.StatusInternalServerError, codeGetCharacteristics, "Cannot get the product characteristics")
		return
	}

	c.JSON(http.StatusOK, characteristics)
}

// 查詢商品評論，附上作者名稱
func GetProductReviewsHandler(c *gin.Context, db *gorm.DB) {
	productID := c.Param("id")

	reviews := []models.ReviewWithAuthor{}
	err := db.WithContext(c.Request.Context()).
		Table("reviews").
		Select("reviews.id, reviews.product, reviews.user, reviews.review, reviews.stars, clients.username").
		Joins("LEFT JOIN clients ON clients.id = reviews.user").
		Where("reviews.product = ?", productID).
		Order("reviews.created_at, reviews.id").
		Scan(&reviews).
		Error
	if err != nil {
		logError(c, "GetProductReviews", "cannot fetch the product reviews: %v", err)
		respondError(c, http.StatusInternalServerError, codeGetReviews, "Cannot get the product reviews")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// 新增商品評論(需登入)
func NewReviewHandler(c *gin.Context, db *gorm.DB) {
	productID := c.Param("id")
	clientID, _ := middleware.CurrentClientID(c)

	var reviewReq struct {
		Review string `form:"review" json:"review" binding:"required"`
		Stars  uint8  `form:"stars" json:"stars" binding:"required,min=1,max=5"`
	}
	if err := bindForm(c, &reviewReq); err != nil {
		respondError(c, http.StatusBadRequest, codeCatalogBadRequest, "A review needs a text and 1 to 5 stars")
		return
	}

	exists, err := productExists(db.WithContext(c.Request.Context()), productID)
	if err != nil {
		logError(c, "NewReview", "cannot check the product '%s': %v", productID, err)
		respondError(c, http.StatusInternalServerError, codePostReview, "Cannot post the review")
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, codeUnknownProduct, "Unknown product")
		return
	}

	review := models.Review{
		ID:      uuid.NewString(),
		Product: productID,
		User:    clientID,
		Review:  reviewReq.Review,
		Stars:   reviewReq.Stars,
	}
	if err := db.WithContext(c.Request.Context()).Create(&review).Error; err != nil {
		logError(c, "NewReview", "cannot post the review: %v", err)
		respondError(c, http.StatusInternalServerError, codePostReview, "Cannot post the review")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      review.ID,
		"code":    codeReviewPosted,
		"message": "Review posted",
	})
}
