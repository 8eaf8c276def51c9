package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// HTTP 触发器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	HTTPTriggerEnabled bool          `mapstructure:"http_trigger_enabled"`

	// 限流配置
	RateLimitEventsRPS   float64 `mapstructure:"rate_limit_events_rps"`
	RateLimitEventsBurst int     `mapstructure:"rate_limit_events_burst"`

	// 存储配置
	StorageType      string `mapstructure:"storage_type"`
	StorageLocalPath string `mapstructure:"storage_local_path"`

	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`

	WebDAVURL      string        `mapstructure:"webdav_url"`
	WebDAVUsername string        `mapstructure:"webdav_username"`
	WebDAVPassword string        `mapstructure:"webdav_password"`
	WebDAVRootPath string        `mapstructure:"webdav_root_path"`
	WebDAVTimeout  time.Duration `mapstructure:"webdav_timeout"`

	// 元数据存储配置
	MetadataType string `mapstructure:"metadata_type"`

	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`

	// 图片处理配置
	TransformEngine         string `mapstructure:"transform_engine"`
	TransformJPEGQuality    int    `mapstructure:"transform_jpeg_quality"`
	TransformMaxConcurrency int    `mapstructure:"transform_max_concurrency"`

	// 编排配置
	AccessURLBase     string        `mapstructure:"access_url_base"`
	ScratchDir        string        `mapstructure:"scratch_dir"`
	MaxSourceSizeMB   int           `mapstructure:"max_source_size_mb"`
	InvocationTimeout time.Duration `mapstructure:"invocation_timeout"`

	// Kafka 事件源
	KafkaEnabled bool   `mapstructure:"kafka_enabled"`
	KafkaBrokers string `mapstructure:"kafka_brokers"`
	KafkaTopic   string `mapstructure:"kafka_topic"`
	KafkaGroupID string `mapstructure:"kafka_group_id"`

	// MinIO 存储桶通知事件源
	MinioNotifyEnabled bool          `mapstructure:"minio_notify_enabled"`
	MinioNotifyBucket  string        `mapstructure:"minio_notify_bucket"`
	MinioNotifyPrefix  string        `mapstructure:"minio_notify_prefix"`
	MinioNotifyRetry   time.Duration `mapstructure:"minio_notify_retry"`

	// Worker 配置
	WorkerCount     int `mapstructure:"worker_count"`
	WorkerQueueSize int `mapstructure:"worker_queue_size"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	if strings.HasSuffix(configFile, ".env") {
		viper.SetConfigType("env")
	}

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: config file not found, using defaults and environment variables")
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	// WorkerCount: -1 = 使用 CPU 线程数, 0 = 使用默认值 (max(2, CPU核心数)), >0 = 使用指定值
	switch {
	case globalConfig.WorkerCount < 0:
		globalConfig.WorkerCount = runtime.GOMAXPROCS(0)
	case globalConfig.WorkerCount == 0:
		globalConfig.WorkerCount = getCpus()
	}
}

// setDefaults 设置默认值
func setDefaults() {
	viper.SetDefault("server_host", "0.0.0.0")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "10m")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("http_trigger_enabled", true)

	viper.SetDefault("rate_limit_events_rps", 50.0)
	viper.SetDefault("rate_limit_events_burst", 100)

	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./data/buckets")
	viper.SetDefault("minio_endpoint", "")
	viper.SetDefault("minio_access_key_id", "")
	viper.SetDefault("minio_secret_access_key", "")
	viper.SetDefault("minio_use_ssl", false)
	viper.SetDefault("webdav_url", "")
	viper.SetDefault("webdav_username", "")
	viper.SetDefault("webdav_password", "")
	viper.SetDefault("webdav_root_path", "")
	viper.SetDefault("webdav_timeout", "30s")

	viper.SetDefault("metadata_type", "database")
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "image-thumbnailer")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	viper.SetDefault("redis_addr", "localhost:6379")
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("redis_key_prefix", "")

	viper.SetDefault("transform_engine", "imaging")
	viper.SetDefault("transform_jpeg_quality", 92)
	viper.SetDefault("transform_max_concurrency", 0)

	viper.SetDefault("access_url_base", "https://firebasestorage.googleapis.com")
	viper.SetDefault("scratch_dir", "")
	viper.SetDefault("max_source_size_mb", 50)
	viper.SetDefault("invocation_timeout", "540s")

	viper.SetDefault("kafka_enabled", false)
	viper.SetDefault("kafka_brokers", "localhost:9092")
	viper.SetDefault("kafka_topic", "storage-object-events")
	viper.SetDefault("kafka_group_id", "image-thumbnailer")

	viper.SetDefault("minio_notify_enabled", false)
	viper.SetDefault("minio_notify_bucket", "")
	viper.SetDefault("minio_notify_prefix", "temp_upload")
	viper.SetDefault("minio_notify_retry", "5s")

	viper.SetDefault("worker_count", 0)
	viper.SetDefault("worker_queue_size", 1000)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// KafkaBrokerList 返回 broker 列表
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// MaxSourceBytes 源文件大小上限
func (c *Config) MaxSourceBytes() int64 {
	if c.MaxSourceSizeMB <= 0 {
		return 50 * 1024 * 1024
	}
	return int64(c.MaxSourceSizeMB) * 1024 * 1024
}

// GetScratchDir 返回临时目录，未配置时使用系统临时目录
func (c *Config) GetScratchDir() string {
	if c.ScratchDir != "" {
		return c.ScratchDir
	}
	return os.TempDir() + string(os.PathSeparator) + "image-thumbnailer"
}

// GetWorkerCount 返回 worker 数量
func (c *Config) GetWorkerCount() int {
	if c.WorkerCount <= 0 {
		return getCpus()
	}
	return c.WorkerCount
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
