package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Email       EmailConfig       `mapstructure:"email"`
	Queue       QueueConfig       `mapstructure:"queue"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Platform    PlatformConfig    `mapstructure:"platform"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Payment     PaymentConfig     `mapstructure:"payment"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql | postgres
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"` // 启动时同步表结构
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	EmailQueue string `mapstructure:"email_queue"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // text | json
	OutputPath string `mapstructure:"output_path"` // stdout | stderr | 文件路径
}

// PlatformConfig 平台（非租户）域名及支付入口
type PlatformConfig struct {
	Host        string `mapstructure:"host"`         // 例如 platform.test
	PaymentPath string `mapstructure:"payment_path"` // 订阅过期时的跳转地址
}

type ReservationConfig struct {
	AbandonTimeout time.Duration `mapstructure:"abandon_timeout"`
	ReminderHours  []int         `mapstructure:"reminder_hours"`
	ReminderWindow time.Duration `mapstructure:"reminder_window"`
}

type SchedulerConfig struct {
	Timezone      string        `mapstructure:"timezone"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	DailyAt       string        `mapstructure:"daily_at"` // HH:MM
}

type PaymentConfig struct {
	VerifyTimeout   time.Duration `mapstructure:"verify_timeout"`
	Currency        string        `mapstructure:"currency"`
	StripeSecretKey string        `mapstructure:"stripe_secret_key"`
	RenewalGateway  string        `mapstructure:"renewal_gateway"` // 自动续费扣款使用的网关
}

func Load(configPath string) (*Config, error) {
	// 优先读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("queue.email_queue", "hms:email_jobs")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("platform.payment_path", "/api/v1/subscription/pay")
	v.SetDefault("reservation.abandon_timeout", 30*time.Minute)
	v.SetDefault("reservation.reminder_hours", []int{24, 12, 6, 3, 1})
	v.SetDefault("reservation.reminder_window", 90*time.Minute)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.sweep_interval", 5*time.Minute)
	v.SetDefault("scheduler.daily_at", "02:00")
	v.SetDefault("payment.verify_timeout", 10*time.Second)
	v.SetDefault("payment.currency", "NGN")
	v.SetDefault("payment.renewal_gateway", "stripe")
}
