package config

import (
	"strings"

	"github.com/blues/civicops/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// CORSOrigins 允许携带会话 Cookie 跨域访问的前端地址
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	// SQLitePath storage.driver 为 sqlite 时使用的数据库文件
	SQLitePath string `mapstructure:"sqlite_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`    // memory, postgres, sqlite
	SeedDemo bool   `mapstructure:"seed_demo"` // 启动时写入演示审批数据
}

// AuthConfig 会话配置
type AuthConfig struct {
	CookieName string       `mapstructure:"cookie_name"`
	SessionTTL int          `mapstructure:"session_ttl"` // 分钟
	Users      []UserConfig `mapstructure:"users"`
}

// UserConfig 演示账号
type UserConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Role     string `mapstructure:"role"`
}

type TaskConfig struct {
	RollupInterval  int `mapstructure:"rollup_interval"`  // 秒
	OverdueInterval int `mapstructure:"overdue_interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Load 加载配置，configFile 为空时按默认路径查找 config.yaml
func Load(configFile string) *Config {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/civicops")
	}

	setDefaults(v)

	// 环境变量覆盖，例如 CIVICOPS_SERVER_PORT
	v.SetEnvPrefix("civicops")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Could not read config file, using defaults: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}

// Default 返回只包含默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode default config: %v", err)
	}
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "civicops")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.sqlite_path", "civicops.db")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.seed_demo", true)
	v.SetDefault("auth.cookie_name", "civicops_session")
	v.SetDefault("auth.session_ttl", 720)
	v.SetDefault("auth.users", []map[string]interface{}{
		{"username": "admin", "password": "admin", "role": "admin"},
		{"username": "pm", "password": "pm", "role": "pm"},
		{"username": "rdc", "password": "rdc", "role": "rdc_manager"},
		{"username": "minister", "password": "minister", "role": "minister"},
	})
	v.SetDefault("task.rollup_interval", 300)
	v.SetDefault("task.overdue_interval", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}
