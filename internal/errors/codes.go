package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// Clients map these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong phone or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED" // logged out
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthPhoneAlreadyExists = "AUTH_PHONE_EXISTS"
	AuthPasswordMismatch   = "AUTH_PASSWORD_MISMATCH" // confirmation differs
	AuthUserNotFound       = "AUTH_USER_NOT_FOUND"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationTooShort      = "VALIDATION_TOO_SHORT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (CATALOG_) ====================
	CatalogItemNotFound    = "CATALOG_ITEM_NOT_FOUND"
	CatalogItemUnavailable = "CATALOG_ITEM_UNAVAILABLE" // missing or inactive
	CatalogInvalidItemType = "CATALOG_INVALID_ITEM_TYPE"

	// ==================== Cart (CART_) ====================
	CartItemNotFound  = "CART_ITEM_NOT_FOUND"
	CartInvalidAction = "CART_INVALID_ACTION" // not increase or decrease

	// ==================== Orders (ORDER_) ====================
	OrderNotFound                = "ORDER_NOT_FOUND"
	OrderEmptyCart               = "ORDER_EMPTY_CART"
	OrderInvalidPaymentMode      = "ORDER_INVALID_PAYMENT_MODE"
	OrderInvalidDeliveryLocation = "ORDER_INVALID_DELIVERY_LOCATION"
	OrderNotCancellable          = "ORDER_NOT_CANCELLABLE"

	// ==================== Addresses (ADDRESS_) ====================
	AddressNotFound = "ADDRESS_NOT_FOUND"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	UploadUnavailable     = "UPLOAD_UNAVAILABLE" // image host not configured

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
