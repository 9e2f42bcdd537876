package fuse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestDefaultConfig_Orders(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []model.Source{model.SourceProfessional, model.SourceWebsite, model.SourceBio},
		cfg.order("first_name"))
	assert.Equal(t, []model.Source{model.SourceSecondary, model.SourceWebsite},
		cfg.order("phone"))
	assert.Nil(t, cfg.order("email")) // email has a dedicated fuser rule
}

func TestLoadConfig_OverridesOneField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
fusion:
  fields:
    phone:
      - website
      - facebook
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []model.Source{model.SourceWebsite, model.SourceSecondary}, cfg.order("phone"))
	// Untouched fields keep the defaults.
	assert.Equal(t, []model.Source{model.SourceProfessional, model.SourceWebsite, model.SourceBio},
		cfg.order("role"))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fusion: [not a map"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
