package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	Http    *HTTPConfig
	Grpc    *GRPCConfig
	Db      *PGDBCfg
	Redis   *RedisCfg
	Kafka   *KafkaCfg
	Catalog *CatalogCfg
	Cart    *CartCfg
}

// KafkaCfg описывает публикацию событий корзины. Enabled=false, если KAFKA_BROKERS не задан.
type KafkaCfg struct {
	Enabled           bool
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	BatchTimeout      time.Duration
	EnsureTopic       bool
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SwaggerURL   string
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

// CatalogCfg - параметры клиента внешнего каталога товаров.
type CatalogCfg struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// CartCfg - параметры хранения корзин и расчёта итогов для витрины.
type CartCfg struct {
	Storage               string // redis | postgres
	TTL                   time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	JanitorInterval       time.Duration
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cart, err := loadCartCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var db *PGDBCfg
	if cart.Storage == StoragePostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return &Config{
		Http:    http,
		Grpc:    loadGRPCConfig(),
		Db:      db,
		Redis:   redis,
		Kafka:   kafka,
		Catalog: catalog,
		Cart:    cart,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "storefront.cart.events"
		defaultNetworkMode       = "tcp"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultBatchTimeout      = 200 * time.Millisecond
	)

	brokerStr := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokerStr == "" {
		return &KafkaCfg{Enabled: false}, nil
	}

	brokers := make([]string, 0)
	for _, b := range strings.Split(brokerStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	batchTimeout, err := parseDurationEnv("KAFKA_BATCH_TIMEOUT", defaultBatchTimeout)
	if err != nil {
		return nil, e.Wrap("KAFKA_BATCH_TIMEOUT", err)
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, err
	}

	replicationFactor, err := parseIntEnv("KAFKA_REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, err
	}

	return &KafkaCfg{
		Enabled:           len(brokers) > 0,
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		BatchTimeout:      batchTimeout,
		EnsureTopic:       getEnvOrDefault("KAFKA_ENSURE_TOPIC", "true") == "true",
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	// WriteTimeout = 0 отключает таймаут, что нужно для долгоживущего SSE-потока /cart/events.
	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		SwaggerURL:   getEnvOrDefault("SWAGGER_URL", "http://localhost:"+port+"/swagger/doc.json"),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 10 * time.Minute
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ProductTTL:  productTTL,
	}, nil
}

func loadCatalogCfg(log logger.Logger) (*CatalogCfg, error) {
	const (
		defaultBaseURL     = "https://fakestoreapi.com"
		defaultTimeout     = 5 * time.Second
		defaultMaxRetries  = 3
		defaultBaseBackoff = 200 * time.Millisecond
		defaultMaxBackoff  = 3 * time.Second
	)

	timeout, err := parseDurationEnv("CATALOG_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid CATALOG_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("CATALOG_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid CATALOG_MAX_RETRIES")
		return nil, err
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	baseBackoff, err := parseDurationEnv("CATALOG_BASE_BACKOFF", defaultBaseBackoff)
	if err != nil {
		log.Errorf(err, "invalid CATALOG_BASE_BACKOFF")
		return nil, err
	}

	maxBackoff, err := parseDurationEnv("CATALOG_MAX_BACKOFF", defaultMaxBackoff)
	if err != nil {
		log.Errorf(err, "invalid CATALOG_MAX_BACKOFF")
		return nil, err
	}

	return &CatalogCfg{
		BaseURL:     strings.TrimRight(getEnvOrDefault("CATALOG_BASE_URL", defaultBaseURL), "/"),
		Timeout:     timeout,
		MaxRetries:  maxRetries,
		BaseBackoff: baseBackoff,
		MaxBackoff:  maxBackoff,
	}, nil
}

func loadCartCfg(log logger.Logger) (*CartCfg, error) {
	const (
		defaultStorage         = StorageRedis
		defaultTTL             = 7 * 24 * time.Hour
		defaultWriteTimeout    = 2 * time.Second
		defaultIdleTimeout     = 30 * time.Minute
		defaultJanitorInterval = time.Minute
		defaultTaxRate         = "0.10"
		defaultFreeShipping    = "50"
		defaultShippingFee     = "0"
	)

	storage := strings.ToLower(getEnvOrDefault("CART_STORAGE", defaultStorage))
	if storage != StorageRedis && storage != StoragePostgres {
		err := fmt.Errorf("unknown CART_STORAGE %q: %w", storage, e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid CART_STORAGE")
		return nil, err
	}

	ttl, err := parseDurationEnv("CART_TTL", defaultTTL)
	if err != nil {
		log.Errorf(err, "invalid CART_TTL")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("CART_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid CART_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("CART_IDLE_TIMEOUT", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid CART_IDLE_TIMEOUT")
		return nil, err
	}

	janitorInterval, err := parseDurationEnv("CART_JANITOR_INTERVAL", defaultJanitorInterval)
	if err != nil {
		log.Errorf(err, "invalid CART_JANITOR_INTERVAL")
		return nil, err
	}

	taxRate, err := parseDecimalEnv("CART_TAX_RATE", defaultTaxRate)
	if err != nil {
		log.Errorf(err, "invalid CART_TAX_RATE")
		return nil, err
	}

	freeShipping, err := parseDecimalEnv("CART_FREE_SHIPPING_THRESHOLD", defaultFreeShipping)
	if err != nil {
		log.Errorf(err, "invalid CART_FREE_SHIPPING_THRESHOLD")
		return nil, err
	}

	shippingFee, err := parseDecimalEnv("CART_SHIPPING_FEE", defaultShippingFee)
	if err != nil {
		log.Errorf(err, "invalid CART_SHIPPING_FEE")
		return nil, err
	}

	return &CartCfg{
		Storage:               storage,
		TTL:                   ttl,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
		JanitorInterval:       janitorInterval,
		TaxRate:               taxRate,
		FreeShippingThreshold: freeShipping,
		ShippingFee:           shippingFee,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return intValue, nil
}

// parseDecimalEnv считывает неотрицательное десятичное число.
func parseDecimalEnv(key string, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnvOrDefault(key, defaultValue))
	if err != nil || d.IsNegative() {
		return decimal.Zero, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return d, nil
}
