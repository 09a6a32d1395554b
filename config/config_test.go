package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	as := assert.New(t)

	path := writeTemp(t, `
schemaVersion: "1.0.0"
commandPrefix: [".", "/"]
newsPush:
  enabled: true
  time: "08:30"
  targets: ["123456"]
api:
  goldPrice: "http://example/gold"
`)

	c, err := Load(path)
	as.NoError(err)
	as.True(c.NewsPush.Enabled)
	as.Equal([]string{"123456"}, c.NewsPush.Targets)
	as.Equal("http://example/gold", c.API.GoldPrice)
	// 未覆盖的字段保留默认值
	as.Equal("data/news", c.NewsPush.CacheDir)
}

func TestLoadIncompatibleSchema(t *testing.T) {
	as := assert.New(t)

	path := writeTemp(t, `schemaVersion: "2.0.0"`)
	_, err := Load(path)
	var ce *ConfigError
	as.ErrorAs(err, &ce)
	as.Equal("schemaVersion", ce.Field)
}

func TestParsePushTime(t *testing.T) {
	as := assert.New(t)

	h, m, err := ParsePushTime("08:30")
	as.NoError(err)
	as.Equal(8, h)
	as.Equal(30, m)

	h, m, err = ParsePushTime("23:59")
	as.NoError(err)
	as.Equal(23, h)
	as.Equal(59, m)

	for _, bad := range []string{"", "830", "8:300", "24:00", "12:60", "ab:cd", "12:34:56"} {
		_, _, err := ParsePushTime(bad)
		var ce *ConfigError
		as.ErrorAs(err, &ce, "input %q", bad)
	}
}
