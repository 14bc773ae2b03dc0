// internal/service/config.go
package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用的全部配置
type Config struct {
	Server  ServerConfig  `mapstructure:"Server"`
	API     APIConfig     `mapstructure:"API"`
	Catalog CatalogConfig `mapstructure:"Catalog"`
	Log     LogConfig     `mapstructure:"Log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// APIConfig 定义了行情数据源 (CoinGecko) 的连接信息
type APIConfig struct {
	BaseURL       string
	APIKey        string // demo key，可选
	Timeout       time.Duration
	RatePerMinute int
	Burst         int
	CoinListTTL   time.Duration // /coins/list 结果缓存时间
}

// CatalogConfig 列表页和详情页的行为参数
type CatalogConfig struct {
	Currency      string // vs_currency，例如 usd
	Order         string // 服务端默认排序
	Locale        string // 描述文本的语言
	PageSize      int
	SearchDelay   time.Duration // 搜索防抖时间
	DropdownLimit int           // 下拉框最多展示的结果数
}

// LogConfig 日志配置
type LogConfig struct {
	Level string
}

// GlobalConfig 存储加载后的全局配置
var GlobalConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Addr", ":8080")
	v.SetDefault("Server.ReadTimeout", 10*time.Second)
	v.SetDefault("Server.WriteTimeout", 30*time.Second)
	v.SetDefault("Server.ShutdownTimeout", 5*time.Second)

	v.SetDefault("API.BaseURL", "https://api.coingecko.com/api/v3")
	v.SetDefault("API.APIKey", "")
	v.SetDefault("API.Timeout", 10*time.Second)
	v.SetDefault("API.RatePerMinute", 30)
	v.SetDefault("API.Burst", 5)
	v.SetDefault("API.CoinListTTL", 10*time.Minute)

	v.SetDefault("Catalog.Currency", "usd")
	v.SetDefault("Catalog.Order", "market_cap_desc")
	v.SetDefault("Catalog.Locale", "en")
	v.SetDefault("Catalog.PageSize", 50)
	v.SetDefault("Catalog.SearchDelay", 400*time.Millisecond)
	v.SetDefault("Catalog.DropdownLimit", 8)

	v.SetDefault("Log.Level", "info")
}

// LoadConfig 读取并解析配置文件
// 配置文件不存在时使用默认值，环境变量 (CATALOG_ 前缀) 优先于文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // 文件名是 config
	v.SetConfigType("yaml")   // 文件类型是 yaml
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = cfg
	return &cfg, nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}
	if c.API.RatePerMinute <= 0 {
		return errors.New("API rate per minute must be positive")
	}
	if c.API.Burst <= 0 {
		return errors.New("API burst must be positive")
	}
	if c.Catalog.PageSize <= 0 || c.Catalog.PageSize > 250 {
		return fmt.Errorf("page size must be in [1, 250], got %d", c.Catalog.PageSize)
	}
	if c.Catalog.SearchDelay <= 0 {
		return errors.New("search delay must be positive")
	}
	if c.Catalog.DropdownLimit <= 0 {
		return errors.New("dropdown limit must be positive")
	}
	if c.Catalog.Currency == "" {
		return errors.New("currency is required")
	}
	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}
	return nil
}
