package handlers

import (
	"errors"
	"net/http"

	"Pedalize/middleware"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const anonymousCartCookie = "anonymous_cart_id"

var (
	errLookupCart      = errors.New("lookup shopping cart")
	errCreateCart      = errors.New("create shopping cart")
	errNoAnonymousCart = errors.New("no anonymous shopping cart")
)

func generateAnonymousCartID() string {
	id := uuid.New()
	return id.String()
}

// 從Cookie讀取匿名購物車ID，格式錯誤視為沒有
func getAnonymousCartID(c *gin.Context) string {
	anonymousCartID, err := c.Request.Cookie(anonymousCartCookie)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(anonymousCartID.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// 儲存匿名購物車ID至Cookie
func setAnonymousCartID(c *gin.Context, cartID string) {
	cookie := http.Cookie{
		Name:     anonymousCartCookie,
		Value:    cartID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(c.Writer, &cookie)
}

func clearAnonymousCartID(c *gin.Context) {
	cookie := http.Cookie{
		Name:     anonymousCartCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	http.SetCookie(c.Writer, &cookie)
}

// 已登入用ClientID，未登入用匿名購物車Cookie，沒有就建立一個
func resolveCartOwner(c *gin.Context) string {
	if clientID, ok := middleware.CurrentClientID(c); ok {
		return clientID
	}

	anonymousCartID := getAnonymousCartID(c)
	if anonymousCartID == "" {
		anonymousCartID = generateAnonymousCartID()
		setAnonymousCartID(c, anonymousCartID)
	}
	return models.AnonymousOwner(anonymousCartID)
}

// 查詢購物車，不存在則建立
func findOrCreateCart(db *gorm.DB, owner string) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	err := db.Where("user = ?", owner).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Join(errLookupCart, err)
	}

	cart = models.ShoppingCart{
		ID:   uuid.NewString(),
		User: owner,
	}
	createErr := db.Create(&cart).Error
	if createErr == nil {
		return &cart, nil
	}

	//同時建立時user唯一鍵衝突，改讀另一個請求建立的購物車
	var existing models.ShoppingCart
	if err := db.Where("user = ?", owner).First(&existing).Error; err == nil {
		return &existing, nil
	}
	return nil, errors.Join(errCreateCart, createErr)
}

func findArticle(db *gorm.DB, cartID, productID string) (*models.ShoppingCartArticle, error) {
	var article models.ShoppingCartArticle
	err := db.
		Where("shopping_cart_id = ? AND product = ?", cartID, productID).
		First(&article).
		Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func respondCartError(c *gin.Context, target string, err error) {
	logError(c, target, "cannot obtain the shopping cart: %v", err)
	if errors.Is(err, errCreateCart) {
		respondError(c, http.StatusInternalServerError, codeCreateCart, "Unable to create a new shopping cart for this user")
		return
	}
	respondError(c, http.StatusInternalServerError, codeLookupCart, "Unable to obtain the shopping cart for this user")
}

// 查詢購物車，不存在則建立空購物車
func GetShoppingCartHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())
	owner := resolveCartOwner(c)

	cart, err := findOrCreateCart(db, owner)
	if err != nil {
		logError(c, "GetShoppingCart", "cannot fetch the shopping cart: %v", err)
		if errors.Is(err, errCreateCart) {
			respondError(c, http.StatusInternalServerError, codeCreateFetchCart, "Unable to create a new shopping cart for this user")
			return
		}
		respondError(c, http.StatusInternalServerError, codeFetchCart, "Unable to obtain the shopping cart for this user")
		return
	}

	cart.Articles = []models.ShoppingCartArticle{}
	err = db.
		Where("shopping_cart_id = ?", cart.ID).
		Order("product").
		Find(&cart.Articles).
		Error
	if err != nil {
		logError(c, "GetShoppingCart", "cannot fetch the shopping cart articles: %v", err)
		respondError(c, http.StatusInternalServerError, codeFetchCart, "Unable to obtain the shopping cart for this user")
		return
	}

	c.JSON(http.StatusOK, cart)
}

// 新增商品至購物車，已存在則數量加1
func AddArticleHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())

	var articleReq struct {
		Product string `form:"product" json:"product" binding:"required"`
	}
	if err := bindForm(c, &articleReq); err != nil {
		respondError(c, http.StatusBadRequest, codeCartBadRequest, "A product is required")
		return
	}

	owner := resolveCartOwner(c)
	exists, err := productExists(db, articleReq.Product)
	if err != nil {
		logError(c, "AddArticle", "cannot check the product '%s': %v", articleReq.Product, err)
		respondError(c, http.StatusInternalServerError, codeAddArticle, "Unable to add the article to the shopping cart")
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, codeCartUnknownItem, "Unknown product")
		return
	}

	cart, err := findOrCreateCart(db, owner)
	if err != nil {
		respondCartError(c, "AddArticle", err)
		return
	}

	_, err = findArticle(db, cart.ID, articleReq.Product)
	if err == nil {
		//購物車有相同商品，增加數量
		err = db.
			Model(&models.ShoppingCartArticle{}).
			Where("shopping_cart_id = ? AND product = ?", cart.ID, articleReq.Product).
			Update("quantity", gorm.Expr("quantity + ?", 1)).
			Error
		if err != nil {
			logError(c, "AddArticle", "cannot increase the quantity for the article: %v", err)
			respondError(c, http.StatusInternalServerError, codeUpdateQuantity, "Unable to increase the quantity for the article")
			return
		}
		respondOK(c, codeQuantityIncreased, "Quantity increased")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondCartError(c, "AddArticle", err)
		return
	}

	//購物車沒有相同商品，新增此商品
	err = db.Create(&models.ShoppingCartArticle{
		ShoppingCartID: cart.ID,
		Product:        articleReq.Product,
		Quantity:       1,
	}).Error
	if err != nil {
		logError(c, "AddArticle", "cannot add the article to the shopping cart: %v", err)
		respondError(c, http.StatusInternalServerError, codeAddArticle, "Unable to add the article to the shopping cart")
		return
	}

	respondOK(c, codeArticleAdded, "Article added to the shopping cart")
}

// 設定購物車商品數量，商品不在購物車則以該數量新增
func ChangeArticleQuantityHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())

	var articleReq struct {
		Product  string `form:"product" json:"product" binding:"required"`
		Quantity uint64 `form:"quantity" json:"quantity" binding:"required,min=1"`
	}
	if err := bindForm(c, &articleReq); err != nil {
		respondError(c, http.StatusBadRequest, codeCartBadRequest, "A product and a quantity of at least 1 are required")
		return
	}

	owner := resolveCartOwner(c)
	exists, err := productExists(db, articleReq.Product)
	if err != nil {
		logError(c, "ChangeArticleQuantity", "cannot check the product '%s': %v", articleReq.Product, err)
		respondError(c, http.StatusInternalServerError, codeUpdateQuantity, "Unable to change the quantity for the article")
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, codeCartUnknownItem, "Unknown product")
		return
	}

	cart, err := findOrCreateCart(db, owner)
	if err != nil {
		respondCartError(c, "ChangeArticleQuantity", err)
		return
	}

	_, err = findArticle(db, cart.ID, articleReq.Product)
	if err == nil {
		err = db.
			Model(&models.ShoppingCartArticle{}).
			Where("shopping_cart_id = ? AND product = ?", cart.ID, articleReq.Product).
			Update("quantity", articleReq.Quantity).
			Error
		if err != nil {
			logError(c, "ChangeArticleQuantity", "cannot set the quantity for the article: %v", err)
			respondError(c, http.StatusInternalServerError, codeUpdateQuantity, "Unable to change the quantity for the article")
			return
		}
		respondOK(c, codeQuantityIncreased, "Quantity changed")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondCartError(c, "ChangeArticleQuantity", err)
		return
	}

	err = db.Create(&models.ShoppingCartArticle{
		ShoppingCartID: cart.ID,
		Product:        articleReq.Product,
		Quantity:       articleReq.Quantity,
	}).Error
	if err != nil {
		logError(c, "ChangeArticleQuantity", "cannot add the article to the shopping cart: %v", err)
		respondError(c, http.StatusInternalServerError, codeAddArticle, "Unable to add the article to the shopping cart")
		return
	}

	respondOK(c, codeArticleSet, "Article added to the shopping cart")
}

// 刪除購物車商品，商品不在購物車也視為成功
func DeleteArticleHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())

	var articleReq struct {
		Product string `form:"product" json:"product" binding:"required"`
	}
	if err := bindForm(c, &articleReq); err != nil {
		respondError(c, http.StatusBadRequest, codeCartBadRequest, "A product is required")
		return
	}

	cart, err := findOrCreateCart(db, resolveCartOwner(c))
	if err != nil {
		respondCartError(c, "DeleteArticle", err)
		return
	}

	err = db.
		Where("shopping_cart_id = ? AND product = ?", cart.ID, articleReq.Product).
		Delete(&models.ShoppingCartArticle{}).
		Error
	if err != nil {
		logError(c, "DeleteArticle", "cannot delete the article from the shopping cart: %v", err)
		respondError(c, http.StatusInternalServerError, codeDeleteArticle, "Unable to delete the article from the shopping cart")
		return
	}

	respondOK(c, codeArticleDeleted, "Article deleted from the shopping cart")
}

// 清空購物車
func ClearShoppingCartHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())

	cart, err := findOrCreateCart(db, resolveCartOwner(c))
	if err != nil {
		respondCartError(c, "ClearShoppingCart", err)
		return
	}

	err = db.Where("shopping_cart_id = ?", cart.ID).Delete(&models.ShoppingCartArticle{}).Error
	if err != nil {
		logError(c, "ClearShoppingCart", "cannot delete the articles from the shopping cart: %v", err)
		respondError(c, http.StatusInternalServerError, codeClearCart, "Unable to delete the articles from the shopping cart")
		return
	}

	respondOK(c, codeCartCleared, "Articles deleted from the shopping cart")
}

// 合併匿名購物車至會員購物車(登入後呼叫)，相同商品數量相加
func MergeShoppingCartHandler(c *gin.Context, db *gorm.DB) {
	clientID, _ := middleware.CurrentClientID(c)

	anonymousCartID := getAnonymousCartID(c)
	if anonymousCartID == "" {
		respondError(c, http.StatusBadRequest, codeNoAnonymousCart, "No anonymous shopping cart to merge")
		return
	}

	err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var anonymousCart models.ShoppingCart
		err := tx.
			Preload("Articles").
			Where("user = ?", models.AnonymousOwner(anonymousCartID)).
			First(&anonymousCart).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNoAnonymousCart
		}
		if err != nil {
			return err
		}

		cart, err := findOrCreateCart(tx, clientID)
		if err != nil {
			return err
		}

		for _, article := range anonymousCart.Articles {
			result := tx.
				Model(&models.ShoppingCartArticle{}).
				Where("shopping_cart_id = ? AND product = ?", cart.ID, article.Product).
				Update("quantity", gorm.Expr("quantity + ?", article.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				continue
			}
			err := tx.Create(&models.ShoppingCartArticle{
				ShoppingCartID: cart.ID,
				Product:        article.Product,
				Quantity:       article.Quantity,
			}).Error
			if err != nil {
				return err
			}
		}

		err = tx.Where("shopping_cart_id = ?", anonymousCart.ID).Delete(&models.ShoppingCartArticle{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&anonymousCart).Error
	})
	if err != nil {
		if errors.Is(err, errNoAnonymousCart) {
			clearAnonymousCartID(c)
			respondError(c, http.StatusBadRequest, codeNoAnonymousCart, "No anonymous shopping cart to merge")
			return
		}
		logError(c, "MergeShoppingCart", "cannot merge the anonymous shopping cart: %v", err)
		respondError(c, http.StatusInternalServerError, codeMergeCart, "Unable to merge the anonymous shopping cart")
		return
	}

	clearAnonymousCartID(c)
	respondOK(c, codeCartMerged, "Anonymous shopping cart merged")
}
