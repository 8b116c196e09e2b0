package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	OrderEvents  string `mapstructure:"order_events"`
	PayoutEvents string `mapstructure:"payout_events"`
}

// BusinessConfig 结算业务参数
type BusinessConfig struct {
	PlatformFeePercentage float64 `mapstructure:"platform_fee_percentage"` // 平台佣金比例（0-100）
	HoldPeriodDays        int     `mapstructure:"hold_period_days"`        // 收益清算期（天），卖家未单独配置时生效
	MinimumPayoutAmount   float64 `mapstructure:"minimum_payout_amount"`   // 系统默认最低提现金额
	StrictOrderTotals     bool    `mapstructure:"strict_order_totals"`     // 是否强校验订单总额 = 小计之和 + 佣金
	SettleAfterMinutes    int     `mapstructure:"settle_after_minutes"`    // 提现发起后多久由后台任务结算
	MaxRetryCount         int     `mapstructure:"max_retry_count"`         // outbox 消息最大重试次数
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	applyDefaults(config)

	GlobalConfig = config
	return config
}

// applyDefaults 关键业务参数兜底，避免配置缺失导致清算期为 0
func applyDefaults(config *Config) {
	if config.Business.HoldPeriodDays <= 0 {
		config.Business.HoldPeriodDays = 7
	}
	if config.Business.PlatformFeePercentage <= 0 {
		config.Business.PlatformFeePercentage = 10
	}
	if config.Business.SettleAfterMinutes <= 0 {
		config.Business.SettleAfterMinutes = 30
	}
	if config.Business.MaxRetryCount <= 0 {
		config.Business.MaxRetryCount = 5
	}
}
