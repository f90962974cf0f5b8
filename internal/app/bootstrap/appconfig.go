// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from config files, CONGREGATIONHUB_* environment variables,
// or command-line flags (see LoadConfig). WAFFLE's CoreConfig covers the
// framework side: ports, TLS, log level, body limits.
type AppConfig struct {
	// Storage backend: "mongo" or "memory".
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: congregationhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Audit logging: "all", "db", "log" or "off".
	AuditLogAdmin string

	// Soft size limits reported by group validation.
	GroupMinSize int
	GroupMaxSize int

	// Origins allowed to call the JSON API cross-site. Empty disables CORS.
	CORSAllowedOrigins []string
}

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)
