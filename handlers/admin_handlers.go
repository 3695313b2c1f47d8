package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"Pedalize/cache"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func hasImageExtension(filename string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(filename))]
}

func makeUniqueFileName(file *multipart.FileHeader) string {
	name := filepath.Base(file.Filename)
	fileExt := filepath.Ext(name)
	fileBase := strings.TrimSuffix(name, fileExt)
	return fmt.Sprintf("%s_%d%s", fileBase, time.Now().UnixNano(), fileExt)
}

// 商品資料變動後清除快取，失敗只記錄
func invalidateCatalog(c *gin.Context, pc cache.ProductCache) {
	if err := pc.Invalidate(c.Request.Context()); err != nil {
		logError(c, "Cache", "cannot invalidate the product cache: %v", err)
	}
}

// 查詢會員列表
func GetClientListHandler(c *gin.Context, db *gorm.DB) {
	clientList := []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}{}
	err := db.WithContext(c.Request.Context()).
		Model(&models.Client{}).
		Select("id", "username").
		Order("username").
		Find(&clientList).
		Error
	if err != nil {
		logError(c, "GetClientList", "cannot fetch the clients: %v", err)
		respondError(c, http.StatusInternalServerError, codeListClients, "Cannot get the client list")
		return
	}

	c.JSON(http.StatusOK, clientList)
}

func CreateProductHandler(c *gin.Context, db *gorm.DB, pc cache.ProductCache) {
	db = db.WithContext(c.Request.Context())

	var productReq struct {
		ID          string  `json:"id" binding:"required,max=64"`
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
		Price       uint64  `json:"price"`
		MainImage   *string `json:"main_image"`
		SecondImage *string `json:"second_image"`
		ThirdImage  *string `json:"third_image"`
		FourthImage *string `json:"fourth_image"`
		Size        bool    `json:"size"`
		WheelSize   bool    `json:"wheel_size"`
	}
	if err := c.ShouldBindJSON(&productReq); err != nil {
		respondError(c, http.StatusBadRequest, codeAdminBadRequest, "A product needs an id and a name")
		return
	}

	exists, err := productExists(db, productReq.ID)
	if err != nil {
		logError(c, "CreateProduct", "cannot check the product '%s': %v", productReq.ID, err)
		respondError(c, http.StatusInternalServerError, codeCreateProduct, "Cannot create the product")
		return
	}
	if exists {
		respondError(c, http.StatusConflict, codeProductExists, "A product with this id already exists")
		return
	}

	product := models.Product{
		ID:          productReq.ID,
		Name:        productReq.Name,
		Description: productReq.Description,
		Price:       productReq.Price,
		MainImage:   productReq.MainImage,
		SecondImage: productReq.SecondImage,
		ThirdImage:  productReq.ThirdImage,
		FourthImage: productReq.FourthImage,
		Size:        productReq.Size,
		WheelSize:   productReq.WheelSize,
	}
	if err := db.Create(&product).Error; err != nil {
		logError(c, "CreateProduct", "cannot create the product: %v", err)
		respondError(c, http.StatusInternalServerError, codeCreateProduct, "Cannot create the product")
		return
	}

	invalidateCatalog(c, pc)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created",
		"code":    codeProductCreated,
		"product": product,
	})
}

// 只更新請求中有提供的欄位，圖片與描述給空字串代表清除
func UpdateProductHandler(c *gin.Context, db *gorm.DB, pc cache.ProductCache) {
	db = db.WithContext(c.Request.Context())
	productID := c.Param("id")

	var productReq struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       *uint64 `json:"price"`
		MainImage   *string `json:"main_image"`
		SecondImage *string `json:"second_image"`
		ThirdImage  *string `json:"third_image"`
		FourthImage *string `json:"fourth_image"`
		Size        *bool   `json:"size"`
		WheelSize   *bool   `json:"wheel_size"`
	}
	if err := c.ShouldBindJSON(&productReq); err != nil {
		respondError(c, http.StatusBadRequest, codeAdminBadRequest, "Invalid product data")
		return
	}

	updates := map[string]interface{}{}
	if productReq.Name != nil {
		if *productReq.Name == "" {
			respondError(c, http.StatusBadRequest, codeAdminBadRequest, "The product name cannot be empty")
			return
		}
		updates["name"] = *productReq.Name
	}
	if productReq.Price != nil {
		updates["price"] = *productReq.Price
	}
	if productReq.Size != nil {
		updates["size"] = *productReq.Size
	}
	if productReq.WheelSize != nil {
		updates["wheel_size"] = *productReq.WheelSize
	}
	for column, value := range map[string]*string{
		"description":  productReq.Description,
		"main_image":   productReq.MainImage,
		"second_image": productReq.SecondImage,
		"third_image":  productReq.ThirdImage,
		"fourth_image": productReq.FourthImage,
	} {
		if value == nil {
			continue
		}
		if *value == "" {
			updates[column] = nil
		} else {
			updates[column] = *value
		}
	}

	var product models.Product
	err := db.Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, codeAdminUnknownProduct, "Unknown product")
			return
		}
		logError(c, "UpdateProduct", "cannot fetch the product '%s': %v", productID, err)
		respondError(c, http.StatusInternalServerError, codeUpdateProduct, "Cannot update the product")
		return
	}

	if len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			logError(c, "UpdateProduct", "cannot update the product '%s': %v", productID, err)
			respondError(c, http.StatusInternalServerError, codeUpdateProduct, "Cannot update the product")
			return
		}
		invalidateCatalog(c, pc)
	}

	if err := db.Where("id = ?", productID).First(&product).Error; err != nil {
		logError(c, "UpdateProduct", "cannot reload the product '%s': %v", productID, err)
		respondError(c, http.StatusInternalServerError, codeUpdateProduct, "Cannot update the product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated",
		"code":    codeProductUpdated,
		"product": product,
	})
}

// 刪除商品及其規格、評論與購物車內的商品
func DeleteProductHandler(c *gin.Context, db *gorm.DB, pc cache.ProductCache) {
	productID := c.Param("id")

	err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", productID).Delete(&models.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		for _, model := range []interface{}{
			&models.ProductCharacteristic{},
			&models.Review{},
		} {
			if err := tx.Where("product = ?", productID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("product = ?", productID).Delete(&models.ShoppingCartArticle{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, codeAdminUnknownProduct, "Unknown product")
			return
		}
		logError(c, "DeleteProduct", "cannot delete the product '%s': %v", productID, err)
		respondError(c, http.StatusInternalServerError, codeDeleteProduct, "Cannot delete the product")
		return
	}

	invalidateCatalog(c, pc)
	respondOK(c, codeProductDeleted, "Product deleted")
}

func AddCharacteristicHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())
	productID := c.Param("id")

	var characteristicReq struct {
		Name   string `json:"name" binding:"required"`
		Detail string `json:"detail" binding:"required"`
	}
	if err := c.ShouldBindJSON(&characteristicReq); err != nil {
		respondError(c, http.StatusBadRequest, codeAdminBadRequest, "A characteristic needs a name and a detail")
		return
	}

	exists, err := productExists(db, productID)
	if err != nil {
		logError(c, "AddCharacteristic", "cannot check the product '%s': %v", productID, err)
		respondError(c, http.StatusInternalServerError, codeCharacteristic, "Cannot add the characteristic")
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, codeAdminUnknownProduct, "Unknown product")
		return
	}

	characteristic := models.ProductCharacteristic{
		Product: productID,
		Name:    characteristicReq.Name,
		Detail:  characteristicReq.Detail,
	}
	if err := db.Create(&characteristic).Error; err != nil {
		logError(c, "AddCharacteristic", "cannot add the characteristic: %v", err)
		respondError(c, http.StatusInternalServerError, codeCharacteristic, "Cannot add the characteristic")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Characteristic added",
		"code":           codeCharacteristicAdded,
		"characteristic": characteristic,
	})
}

func DeleteCharacteristicHandler(c *gin.Context, db *gorm.DB) {
	productID := c.Param("id")
	name := c.Param("name")

	result := db.WithContext(c.Request.Context()).
		Where("product = ? AND name = ?", productID, name).
		Delete(&models.ProductCharacteristic{})
	if result.Error != nil {
		logError(c, "DeleteCharacteristic", "cannot delete the characteristic: %v", result.Error)
		respondError(c, http.StatusInternalServerError, codeCharacteristic, "Cannot delete the characteristic")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, codeUnknownCharacteristic, "Unknown characteristic")
		return
	}

	respondOK(c, codeCharacteristicDeleted, "Characteristic deleted")
}

// 上傳商品圖片，回傳可放入商品圖片欄位的路徑
func UploadImageHandler(c *gin.Context, uploadsDir string) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeAdminBadRequest, "An image file is required")
		return
	}

	if !hasImageExtension(file.Filename) {
		respondError(c, http.StatusBadRequest, codeAdminBadRequest, "Only .jpg, .jpeg and .png images are accepted")
		return
	}

	//檢查uploads資料夾是否存在，如不存在則創建
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		logError(c, "UploadImage", "cannot create %s: %v", uploadsDir, err)
		respondError(c, http.StatusInternalServerError, codeUploadImage, "Cannot save the image")
		return
	}

	imageName := makeUniqueFileName(file)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadsDir, imageName)); err != nil {
		logError(c, "UploadImage", "cannot save %s: %v", imageName, err)
		respondError(c, http.StatusInternalServerError, codeUploadImage, "Cannot save the image")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Image uploaded",
		"code":      codeImageUploaded,
		"imagePath": path.Join("/uploads", imageName),
	})
}
