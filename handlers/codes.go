package handlers

// 商品
const (
	codeGetAllProducts     = 4001
	codeGetProduct         = 4002
	codeGetProductPage     = 4003
	codeGetCharacteristics = 4004
	codeGetReviews         = 4005
	codePostReview         = 4006
	codeCatalogBadRequest  = 4007
	codeUnknownProduct     = 4008

	codeReviewPosted = 4100
)

// 購物車
const (
	codeFetchCart       = 5001
	codeCreateFetchCart = 5002
	codeCreateCart      = 5003
	codeLookupCart      = 5004
	codeAddArticle      = 5005
	codeUpdateQuantity  = 5006
	codeDeleteArticle   = 5007
	codeClearCart       = 5008
	codeCartUnknownItem = 5009
	codeCartBadRequest  = 5010
	codeNoAnonymousCart = 5011
	codeMergeCart       = 5012

	codeQuantityIncreased = 5100
	codeArticleAdded      = 5101
	codeArticleSet        = 5102
	codeArticleDeleted    = 5103
	codeCartCleared       = 5104
	codeCartMerged        = 5105
)

// 會員
const (
	codeClientBadRequest   = 6003
	codeInvalidCredentials = 6004
	codeClientTaken        = 6005
	codeRegisterFailed     = 6006
	codeLoginFailed        = 6007
	codeLogoutFailed       = 6008
	codeProfileFailed      = 6009
	codeUpdateProfile      = 6010

	codeRegistered     = 6100
	codeLoggedIn       = 6101
	codeLoggedOut      = 6102
	codeProfileUpdated = 6103
)

// 管理員
const (
	codeAdminBadRequest       = 7001
	codeListClients           = 7002
	codeProductExists         = 7003
	codeCreateProduct         = 7004
	codeAdminUnknownProduct   = 7005
	codeUpdateProduct         = 7006
	codeDeleteProduct         = 7007
	codeCharacteristic        = 7008
	codeUploadImage           = 7009
	codeUnknownCharacteristic = 7010

	codeProductCreated        = 7100
	codeProductUpdated        = 7101
	codeProductDeleted        = 7102
	codeCharacteristicAdded   = 7103
	codeCharacteristicDeleted = 7104
	codeImageUploaded         = 7105
)
