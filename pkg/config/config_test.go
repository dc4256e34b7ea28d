package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// -----------------------------------------------------------------------------
// Load Tests
// -----------------------------------------------------------------------------

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	require.Error(t, err)

	qerr, ok := qerrors.AsQuireError(err)
	require.True(t, ok, "expected *QuireError, got %T", err)
	assert.Equal(t, qerrors.ErrConfigNotFound, qerr.Code)
	assert.Equal(t, qerrors.CategoryConfig, qerr.Category)
	assert.Equal(t, "/nonexistent/path/to/config.yaml", qerr.Context["path"])
	assert.NotEmpty(t, qerr.Suggestions)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9000
llm:
  model: gemini-1.5-pro
  timeout: 45s
render:
  strict_encoding: true
boards:
  - name: Sindh
    mcqs: 15
    short_questions: 20
    long_questions: 40
    syllabus: Sindh Board Syllabus
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "gemini-1.5-pro", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Render.StrictEncoding)
	// untouched keys keep their defaults
	assert.Equal(t, Default().LLM.BaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, "UrduFont", cfg.Fonts.UrduName)

	require.Len(t, cfg.Boards, 1)
	assert.Equal(t, BoardConfig{Name: "Sindh", MCQs: 15, ShortQs: 20, LongQs: 40, Syllabus: "Sindh Board Syllabus"}, cfg.Boards[0])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUIRE_SERVER_PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
}

func TestLoad_YAMLParseError(t *testing.T) {
	path := writeFile(t, "bad.yaml", "server:\n  port: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrConfigParseFailed))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"port", "server:\n  port: 70000\n", "server.port"},
		{"log format", "logging:\n  format: xml\n", "logging.format"},
		{"board name", "boards:\n  - mcqs: 1\n", "boards[0].name"},
		{"board counts", "boards:\n  - name: X\n    mcqs: -1\n", "boards[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.body))
			require.Error(t, err)
			qerr, ok := qerrors.AsQuireError(err)
			require.True(t, ok)
			assert.Equal(t, qerrors.ErrConfigInvalid, qerr.Code)
			assert.Equal(t, tt.field, qerr.Context["field"])
		})
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

// -----------------------------------------------------------------------------
// Save / Init Tests
// -----------------------------------------------------------------------------

func TestInitConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, InitConfig(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().LLM.Timeout, cfg.LLM.Timeout)
	assert.Equal(t, Default().Fonts, cfg.Fonts)

	// second call leaves the file alone
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1234\n"), 0644))
	require.NoError(t, InitConfig(path))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)
}

func TestSave_DoesNotWriteAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "do-not-persist"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "do-not-persist")
}

func TestAgent_InferenceDefaults(t *testing.T) {
	cfg := Default()
	temp := 0.2
	cfg.Agents["quality_checker"] = AgentConfig{Temperature: &temp}

	qc := cfg.Agent("quality_checker")
	assert.Equal(t, "gemini-2.0-flash", qc.Model)
	assert.Equal(t, 4096, qc.MaxTokens)
	assert.Equal(t, 0.2, *qc.Temperature)

	pd := cfg.Agent("paper_designer")
	require.NotNil(t, pd.Temperature)
	assert.Equal(t, 0.7, *pd.Temperature)
}
