package smsc

import (
	"os"
	"time"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/comm/yml_config"
)

const envPrefix = "SMSC"

type LogicConfig struct {
	Mode          string        `yaml:"mode"` // receipt | reject
	ReceiptDelay  time.Duration `yaml:"receipt-delay" split_words:"true"`
	ReceiptJitter time.Duration `yaml:"receipt-jitter" split_words:"true"`
	SuccessRate   float64       `yaml:"success-rate" split_words:"true"`
}

type Config struct {
	// 服务参数
	Listen       string `yaml:"listen"`
	Multicore    bool   `yaml:"multicore"`
	MaxCons      int    `yaml:"max-cons" split_words:"true"`
	MonitorPort  int    `yaml:"monitor-port" split_words:"true"`
	MaxPoolSize  int    `yaml:"max-pool-size" split_words:"true"`
	SystemId     string `yaml:"system-id" split_words:"true"`
	Namespace    string `yaml:"namespace"`
	DataCenterId int32  `yaml:"datacenter-id" envconfig:"DATACENTER_ID"`
	WorkerId     int32  `yaml:"worker-id" split_words:"true"`

	// 会话参数
	MaxPduSize          uint32        `yaml:"max-pdu-size" split_words:"true"`
	EnquireLinkInterval time.Duration `yaml:"enquire-link-interval" split_words:"true"`
	ResponseTimeout     time.Duration `yaml:"response-timeout" split_words:"true"`
	BindTimeout         time.Duration `yaml:"bind-timeout" split_words:"true"`
	IdleTimeout         time.Duration `yaml:"idle-timeout" split_words:"true"`
	MaxBindAttempts     int           `yaml:"max-bind-attempts" split_words:"true"`
	Window              int           `yaml:"window"`
	SubmitRate          float64       `yaml:"submit-rate" split_words:"true"`
	SubmitBurst         int           `yaml:"submit-burst" split_words:"true"`
	MaxDeliveryAttempts int           `yaml:"max-delivery-attempts" split_words:"true"`
	QueueLimit          int           `yaml:"queue-limit" split_words:"true"`
	RecordTtl           time.Duration `yaml:"record-ttl" split_words:"true"`

	// system_id -> 密码（明文或bcrypt摘要），为空时 system_id 与密码相同即可绑定
	Credentials map[string]string `yaml:"credentials" ignored:"true"`
	Logic       LogicConfig       `yaml:"logic"`
}

// LoadConfig path 为空时取环境变量 SMSC_CONF_PATH
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SMSC_CONF_PATH")
	}
	conf := &Config{}
	if err := yml_config.Load(path, envPrefix, conf); err != nil {
		return nil, err
	}
	conf.Defaults()
	return conf, nil
}

// Defaults 填充未配置的参数
func (c *Config) Defaults() {
	if c.Listen == "" {
		c.Listen = ":2775"
	}
	if c.SystemId == "" {
		c.SystemId = "gosmsc"
	}
	if c.MaxCons <= 0 {
		c.MaxCons = 1024
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 10000
	}
	if c.MaxPduSize == 0 || c.MaxPduSize > smpp.MAX_PDU_SIZE {
		c.MaxPduSize = smpp.MAX_PDU_SIZE
	}
	if c.MaxPduSize < smpp.HEAD_LENGTH {
		c.MaxPduSize = smpp.HEAD_LENGTH
	}
	if c.EnquireLinkInterval <= 0 {
		c.EnquireLinkInterval = 30 * time.Second
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = 10 * time.Second
	}
	if c.BindTimeout <= 0 {
		c.BindTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 3 * c.EnquireLinkInterval
	}
	if c.MaxBindAttempts <= 0 {
		c.MaxBindAttempts = 3
	}
	if c.Window <= 0 {
		c.Window = 16
	}
	if c.SubmitRate <= 0 {
		c.SubmitRate = 200
	}
	if c.SubmitBurst <= 0 {
		c.SubmitBurst = int(c.SubmitRate)
		if c.SubmitBurst < 1 {
			c.SubmitBurst = 1
		}
	}
	if c.MaxDeliveryAttempts <= 0 {
		c.MaxDeliveryAttempts = 3
	}
	if c.QueueLimit <= 0 {
		c.QueueLimit = 10000
	}
	if c.RecordTtl <= 0 {
		c.RecordTtl = 24 * time.Hour
	}
	if c.Logic.Mode == "" {
		c.Logic.Mode = "receipt"
	}
	if c.Logic.SuccessRate <= 0 || c.Logic.SuccessRate > 1 {
		c.Logic.SuccessRate = 1
	}
}
