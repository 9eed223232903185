package cfg

type Cfg struct {
	// Application configuration
	ChannelsDir      string
	Port             string
	BaseUrl          string
	WorkerCount      int
	WarmInterval     int
	APIAccessKey     string
	DefaultLimit     int
	FetchConcurrency int
	RequestTimeout   int
	RequestRetries   int
	RequestHeaders   map[string]string

	// Cache configuration
	CacheBackend string
	CacheTTL     int
	SQLitePath   string
	RedisAddr    string
	RedisDB      int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
