package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Dirs   DirsConfig   `toml:"dirs"`
	CSV    CSVConfig    `toml:"csv"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DirsConfig 目录配置，相对路径基于当前工作目录
type DirsConfig struct {
	Blueprints   string `toml:"blueprints"`
	Scenarios    string `toml:"scenarios"`
	Components   string `toml:"components"`
	Datapackages string `toml:"datapackages"`
	Raw          string `toml:"raw"`
}

// CSVConfig CSV 读写配置
type CSVConfig struct {
	Delimiter string `toml:"delimiter"`
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20372,
			DevMode: false,
		},
		Dirs: DirsConfig{
			Blueprints:   "blueprints",
			Scenarios:    "scenarios",
			Components:   "components",
			Datapackages: "datapackages",
			Raw:          "raw",
		},
		CSV: CSVConfig{
			Delimiter: ";",
		},
	}
}

// Delimiter 解析配置的分隔符，非法时退回分号
func (c *AppConfig) Delimiter() rune {
	for _, r := range c.CSV.Delimiter {
		return r
	}
	return ';'
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig 加载配置
// 优先读取当前目录的 config.toml，其次可执行文件目录；都不存在时用默认值
// 目录项支持环境变量覆盖（用于测试与 CI）
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	path := "config.toml"
	if _, err := os.Stat(path); err != nil {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		path = filepath.Join(exeDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides 环境变量覆盖目录配置
func applyEnvOverrides(config *AppConfig) {
	overrides := map[string]*string{
		"GRIDPACK_BLUEPRINT_DIR":   &config.Dirs.Blueprints,
		"GRIDPACK_SCENARIO_DIR":    &config.Dirs.Scenarios,
		"GRIDPACK_COMPONENTS_DIR":  &config.Dirs.Components,
		"GRIDPACK_DATAPACKAGE_DIR": &config.Dirs.Datapackages,
		"GRIDPACK_RAW_DIR":         &config.Dirs.Raw,
	}
	for env, target := range overrides {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// SaveConfig 保存配置到当前目录的 config.toml
func SaveConfig(config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile("config.toml", data, 0644)
}
