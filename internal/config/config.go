package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Room     RoomConfig     `mapstructure:"room"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig 状态查询API服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RoomConfig Archipelago房间配置
type RoomConfig struct {
	LogURL         string        `mapstructure:"log_url"`         // 房间日志页面URL
	SpoilerURL     string        `mapstructure:"spoiler_url"`     // 种子spoiler日志URL（可选）
	SessionCookie  string        `mapstructure:"session_cookie"`  // 网站会话Cookie
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // 轮询间隔
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`   // 日志/状态接口拉取超时
	ReleaseEpsilon time.Duration `mapstructure:"release_epsilon"` // 释放事件与物品发送的归并窗口
	ReleaseWindow  time.Duration `mapstructure:"release_window"`  // 释放缓冲的冲刷等待时间
}

// WebhookConfig 通知出口配置
type WebhookConfig struct {
	URL         string        `mapstructure:"url"`          // 接收文本的webhook地址
	ChatURL     string        `mapstructure:"chat_url"`     // 聊天消息单独出口（可选）
	MaxLength   int           `mapstructure:"max_length"`   // 单次投递的最大字符数
	SendDelay   time.Duration `mapstructure:"send_delay"`   // 连续分片之间的间隔
	SendTimeout time.Duration `mapstructure:"send_timeout"` // 单次投递超时
}

// ClassifyConfig 物品重要度解析配置
type ClassifyConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 重要度缓存有效期
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig 安全配置（管理端点认证）
type SecurityConfig struct {
	JWT   JWTConfig   `mapstructure:"jwt"`
	Admin AdminConfig `mapstructure:"admin"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig 管理员账号配置
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"` // argon2id编码串
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("AP_ITEMLOG")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			return
		}
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 42069)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/ap-itemlog.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// 房间默认配置
	v.SetDefault("room.poll_interval", "30s")
	v.SetDefault("room.fetch_timeout", "5s")
	v.SetDefault("room.release_epsilon", "2s")
	v.SetDefault("room.release_window", "30s")

	// 通知出口默认配置
	v.SetDefault("webhook.max_length", 2000)
	v.SetDefault("webhook.send_delay", "500ms")
	v.SetDefault("webhook.send_timeout", "5s")

	// 重要度解析默认配置
	v.SetDefault("classify.cache_ttl", "1h")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "ap-itemlog.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	// 安全默认配置
	v.SetDefault("security.jwt.expire_hours", 24)
	v.SetDefault("security.admin.username", "admin")
}

// Validate 校验启动必需的配置项
// 缺少日志源或通知出口属于致命配置错误，进程不应进入轮询循环
func (c *Config) Validate() error {
	if c.Room.LogURL == "" {
		return fmt.Errorf("room.log_url 未配置")
	}
	if c.Room.SessionCookie == "" {
		return fmt.Errorf("room.session_cookie 未配置")
	}
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url 未配置")
	}
	if c.Room.PollInterval <= 0 {
		return fmt.Errorf("room.poll_interval 必须为正值")
	}
	if c.Webhook.MaxLength <= 0 {
		return fmt.Errorf("webhook.max_length 必须为正值")
	}
	return nil
}

// RoomID 从日志URL中解出房间ID
func (c *RoomConfig) RoomID() string {
	parts := strings.Split(strings.TrimRight(c.LogURL, "/"), "/")
	return parts[len(parts)-1]
}

// Hostname 从日志URL中解出主机名
func (c *RoomConfig) Hostname() string {
	parts := strings.Split(c.LogURL, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// SeedID 从spoiler URL中解出种子ID（未配置时为空串）
func (c *RoomConfig) SeedID() string {
	if c.SpoilerURL == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(c.SpoilerURL, "/"), "/")
	return parts[len(parts)-1]
}

// RoomStatusURL 房间状态接口地址
func (c *RoomConfig) RoomStatusURL() string {
	return fmt.Sprintf("https://%s/api/room_status/%s", c.Hostname(), c.RoomID())
}

// SpoilerDownloadURL spoiler日志下载地址
func (c *RoomConfig) SpoilerDownloadURL() string {
	return fmt.Sprintf("https://%s/dl_spoiler/%s", c.Hostname(), c.SeedID())
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}

		fmt.Println("配置已重新加载")
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}
