package config

const (
	HCType          = "Content-Type"
	HETag           = "ETag"
	HCacheControl   = "Cache-Control"
	HAuthorization  = "Authorization"
	HContentLength  = "Content-Length"
	HAccept         = "Accept"
	HXRequestedWith = "X-Requested-With"
	HSignature      = "X-Signature"
	HLocation       = "Location"

	CTypeCSS       = "text/css"
	CTypeHTML      = "text/html"
	CTypeJSON      = "application/json"
	CTypeMultipart = "multipart/form-data"
	CTypeSSE       = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieAuthToken = "auth_token"
)

const (
	BearerPrefix = "Bearer "
)
