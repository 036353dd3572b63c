package yml_config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Load 读取yaml配置文件到 v，再用环境变量覆盖。
// 当前目录下存在 .env 文件时先加载它，已存在的环境变量不会被覆盖。
// prefix 为空时不读取环境变量。
func Load(path string, prefix string, v interface{}) error {
	if len(path) > 0 {
		bts, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err = yaml.Unmarshal(bts, v); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if len(prefix) == 0 {
		return nil
	}
	_ = godotenv.Load()
	if err := envconfig.Process(prefix, v); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	return nil
}
