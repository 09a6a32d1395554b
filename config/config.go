package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// SchemaVersion 配置文件结构版本，不兼容的旧配置直接报错
const SchemaVersion = "1.0.0"

// ConfigError 配置内容非法，启动期或指令修改配置时返回
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Detail)
}

type Config struct {
	SchemaVersion string   `yaml:"schemaVersion"`
	CommandPrefix []string `yaml:"commandPrefix"`

	GroupDBPath string `yaml:"groupDbPath"`

	Adapters struct {
		Milky struct {
			Enabled  bool   `yaml:"enabled"`
			Endpoint string `yaml:"endpoint"`
			Token    string `yaml:"token"`
		} `yaml:"milky"`
		OneBot11 struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
			Token   string `yaml:"token"`
			Reverse bool   `yaml:"reverse"`
		} `yaml:"onebot11"`
	} `yaml:"adapters"`

	NewsPush struct {
		Enabled  bool     `yaml:"enabled"`
		Time     string   `yaml:"time"`
		Targets  []string `yaml:"targets"`
		CacheDir string   `yaml:"cacheDir"`
	} `yaml:"newsPush"`

	API struct {
		NewsDigest string `yaml:"newsDigest"`
		GoldPrice  string `yaml:"goldPrice"`
		HotSearch  string `yaml:"hotSearch"`
		Figurine   string `yaml:"figurine"`
	} `yaml:"api"`
}

func Default() *Config {
	c := &Config{
		SchemaVersion: SchemaVersion,
		CommandPrefix: []string{".", "。", "/"},
		GroupDBPath:   "data/groups.db",
	}
	c.NewsPush.Time = "08:30"
	c.NewsPush.CacheDir = "data/news"
	return c
}

// Load 读取并校验配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, &ConfigError{Field: path, Detail: err.Error()}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	ver, err := semver.NewVersion(c.SchemaVersion)
	if err != nil {
		return &ConfigError{Field: "schemaVersion", Detail: "非法版本号: " + c.SchemaVersion}
	}
	expected := semver.MustParse(SchemaVersion)
	if ver.Major() != expected.Major() {
		return &ConfigError{
			Field:  "schemaVersion",
			Detail: fmt.Sprintf("配置结构版本%s与程序要求%s不兼容", c.SchemaVersion, SchemaVersion),
		}
	}

	if len(c.CommandPrefix) == 0 {
		return &ConfigError{Field: "commandPrefix", Detail: "至少需要一个指令前缀"}
	}

	if _, _, err := ParsePushTime(c.NewsPush.Time); err != nil {
		return err
	}
	return nil
}

// ParsePushTime 解析"HH:MM"形式的推送时刻
func ParsePushTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, &ConfigError{Field: "newsPush.time", Detail: "时间格式应为HH:MM，收到: " + s}
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, &ConfigError{Field: "newsPush.time", Detail: "时间格式应为HH:MM，收到: " + s}
	}
	if hour < 0 || hour > 23 {
		return 0, 0, &ConfigError{Field: "newsPush.time", Detail: fmt.Sprintf("小时越界: %d", hour)}
	}
	if minute < 0 || minute > 59 {
		return 0, 0, &ConfigError{Field: "newsPush.time", Detail: fmt.Sprintf("分钟越界: %d", minute)}
	}
	return hour, minute, nil
}
