package routers

import (
	"net/http"

	"Pedalize/cache"
	"Pedalize/config"
	"Pedalize/handlers"
	"Pedalize/jwt"
	"Pedalize/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouters(cfg config.Config, db *gorm.DB, pc cache.ProductCache, keys *jwt.Keys) *gin.Engine {
	//建立Gin路由器
	router := gin.Default()
	router.Use(middleware.RequestIDMiddleware(), middleware.CorsMiddleware(cfg.Server.CorsOrigins))
	_ = router.SetTrustedProxies(nil)

	//設定商品圖片靜態資源路徑
	router.Static("/uploads", cfg.Server.UploadsDir)

	router.GET("/health", func(context *gin.Context) {
		context.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	////無須權限，使用中間件檢查是否登入
	router.Use(middleware.AuthMiddleware(keys, db))

	product := router.Group("/product")
	{
		//查詢所有商品
		product.GET("/all", func(context *gin.Context) {
			handlers.GetAllProductsHandler(context, db, pc)
		})
		//分頁查詢商品
		product.GET("/page", func(context *gin.Context) {
			handlers.GetProductPageHandler(context, db, pc, cfg.Catalog.ProductsPerPage)
		})
		//查詢商品詳細資料
		product.GET("/:id", func(context *gin.Context) {
			handlers.GetProductDetailHandler(context, db, pc)
		})
		product.GET("/:id/characteristics", func(context *gin.Context) {
			handlers.GetProductCharacteristicsHandler(context, db)
		})
		product.GET("/:id/reviews", func(context *gin.Context) {
			handlers.GetProductReviewsHandler(context, db)
		})
		product.POST("/:id/reviews", middleware.CheckLoginMiddleware(), func(context *gin.Context) {
			handlers.NewReviewHandler(context, db)
		})
	}

	shoppingCart := router.Group("/shopping_cart")
	{
		//查詢購物車商品
		shoppingCart.GET("/fetch", func(context *gin.Context) {
			handlers.GetShoppingCartHandler(context, db)
		})
		//新增商品至購物車
		shoppingCart.POST("/articles/add", func(context *gin.Context) {
			handlers.AddArticleHandler(context, db)
		})
		//更新購物車商品數量
		shoppingCart.PATCH("/articles/change_quantity", func(context *gin.Context) {
			handlers.ChangeArticleQuantityHandler(context, db)
		})
		//刪除購物車商品
		shoppingCart.DELETE("/articles/remove", func(context *gin.Context) {
			handlers.DeleteArticleHandler(context, db)
		})
		//清除購物車商品
		shoppingCart.DELETE("/clear", func(context *gin.Context) {
			handlers.ClearShoppingCartHandler(context, db)
		})
		//合併匿名和會員購物車(登入後呼叫)
		shoppingCart.POST("/merge", middleware.CheckLoginMiddleware(), func(context *gin.Context) {
			handlers.MergeShoppingCartHandler(context, db)
		})
	}

	clients := router.Group("/clients")
	{
		//註冊帳號
		clients.POST("/register", func(context *gin.Context) {
			handlers.RegisterHandler(context, db)
		})
		//登入帳號
		clients.POST("/login", func(context *gin.Context) {
			handlers.LoginHandler(context, db, keys, cfg.JWT.TokenTTL)
		})

		////需要登入，使用中間件檢查是否登入
		loginRequired := clients.Group("")
		loginRequired.Use(middleware.CheckLoginMiddleware())
		{
			//登出
			loginRequired.POST("/logout", func(context *gin.Context) {
				handlers.LogoutHandler(context, db)
			})
			//查詢會員資料
			loginRequired.GET("/profile", func(context *gin.Context) {
				handlers.GetProfileHandler(context, db)
			})
			//修改信箱或密碼
			loginRequired.PATCH("/profile", func(context *gin.Context) {
				handlers.UpdateProfileHandler(context, db)
			})
		}
	}

	////需要admin身分，使用中間件檢查是否登入及admin權限
	adminRequired := router.Group("/admin")
	adminRequired.Use(middleware.CheckLoginMiddleware(), middleware.CheckAdminPermissionMiddleware())
	{
		//查詢會員列表
		adminRequired.GET("/clients", func(context *gin.Context) {
			handlers.GetClientListHandler(context, db)
		})
		//上傳商品圖片
		adminRequired.POST("/image", func(context *gin.Context) {
			handlers.UploadImageHandler(context, cfg.Server.UploadsDir)
		})
		//新增商品
		adminRequired.POST("/products", func(context *gin.Context) {
			handlers.CreateProductHandler(context, db, pc)
		})
		//修改商品
		adminRequired.PATCH("/products/:id", func(context *gin.Context) {
			handlers.UpdateProductHandler(context, db, pc)
		})
		//刪除商品
		adminRequired.DELETE("/products/:id", func(context *gin.Context) {
			handlers.DeleteProductHandler(context, db, pc)
		})
		//新增商品規格
		adminRequired.POST("/products/:id/characteristics", func(context *gin.Context) {
			handlers.AddCharacteristicHandler(context, db)
		})
		//刪除商品規格
		adminRequired.DELETE("/products/:id/characteristics/:name", func(context *gin.Context) {
			handlers.DeleteCharacteristicHandler(context, db)
		})
	}

	return router
}
