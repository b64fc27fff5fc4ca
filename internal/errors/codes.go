package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to messages.
const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthPasswordMismatch   = "AUTH_PASSWORD_MISMATCH"

	// Authorization
	AuthzForbidden        = "AUTHZ_FORBIDDEN"
	AuthzOwnerOnly        = "AUTHZ_OWNER_ONLY"
	AuthzAdminOnly        = "AUTHZ_ADMIN_ONLY"
	AuthzStoreContext     = "AUTHZ_STORE_CONTEXT_REQUIRED"
	AuthzRoleNotFound     = "AUTHZ_ROLE_NOT_FOUND"
	AuthzCrossTenantWrite = "AUTHZ_CROSS_TENANT_WRITE"

	// Validation
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"
	ValidationDuplicate     = "VALIDATION_DUPLICATE"
	ValidationDomainLocked  = "VALIDATION_DOMAIN_LOCKED"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Tenancy
	TenantNoSubdomain = "TENANT_NO_SUBDOMAIN"
	StoreNotFound     = "STORE_NOT_FOUND"

	// Catalog
	CategoryNotFound      = "CATEGORY_NOT_FOUND"
	ProductNotFound       = "PRODUCT_NOT_FOUND"
	ShippingAgentNotFound = "SHIPPING_AGENT_NOT_FOUND"
	UserNotFound          = "USER_NOT_FOUND"

	// Uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	UploadNotSupported    = "UPLOAD_NOT_SUPPORTED"

	// Rate limiting
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalStorageError  = "INTERNAL_STORAGE_ERROR"
)
