package cmd

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/config"
	apperrors "github.com/miminai/mimin/internal/errors"
	"github.com/miminai/mimin/internal/server/handlers"
)

func TestBuildInitConfig(t *testing.T) {
	t.Run("defaults to duckduckgo without key", func(t *testing.T) {
		out := buildInitConfig("", "")
		assert.Contains(t, out, "backend: duckduckgo")
		assert.Contains(t, out, "# api_key:")
		assert.NotContains(t, out, "tavily")
	})

	t.Run("tavily with key", func(t *testing.T) {
		out := buildInitConfig("AIzaSyExampleKey123", " Tavily ")
		assert.Contains(t, out, "backend: tavily")
		assert.Contains(t, out, "TAVILY_API_KEY")
		assert.Contains(t, out, `api_key: "AIzaSyExampleKey123"`)
	})

	t.Run("loads through viper", func(t *testing.T) {
		v := viper.New()
		config.SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(buildInitConfig("AIzaSyExampleKey123", "duckduckgo"))))

		cfg, err := config.Load(v, "MIMIN_CMDTEST")
		require.NoError(t, err)
		assert.Equal(t, "duckduckgo", cfg.Search.Backend)
		assert.Equal(t, "gemini", cfg.AILink.DefaultProvider)
		require.NotEmpty(t, cfg.AILink.Providers["gemini"].Credentials)
		assert.Equal(t, "AIzaSyExampleKey123", cfg.AILink.Providers["gemini"].Credentials[0].APIKey)
	})
}

func TestPromptForValue(t *testing.T) {
	var out bytes.Buffer
	value, err := promptForValue(strings.NewReader("  secret-key \n"), &out, "Key: ")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", value)
	assert.Equal(t, "Key: ", out.String())

	value, err = promptForValue(strings.NewReader("no-newline"), &out, "Key: ")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", value)
}

func TestCheckPortAvailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	assert.Error(t, checkPortAvailable(ln.Addr().String()))
	assert.NoError(t, checkPortAvailable("127.0.0.1:0"))
}

func TestCollaboratorChecker(t *testing.T) {
	assert.NoError(t, collaboratorChecker(true, errors.New("ignored"))(context.Background()))

	err := collaboratorChecker(false, errors.New("no model answered"))(context.Background())
	assert.ErrorIs(t, err, handlers.ErrDegraded)
	assert.Contains(t, err.Error(), "no model answered")

	assert.ErrorIs(t, collaboratorChecker(false, nil)(context.Background()), handlers.ErrDegraded)
}

func TestIdentityHealthChecker(t *testing.T) {
	ok := identityHealthChecker{binaryName: "mimin", envPrefix: "MIMIN_", configName: "mimin"}
	assert.NoError(t, ok.CheckHealth(context.Background()))

	missing := identityHealthChecker{binaryName: "mimin", configName: "mimin"}
	assert.Error(t, missing.CheckHealth(context.Background()))
}

func TestEnvelopeFields(t *testing.T) {
	assert.Nil(t, envelopeFields(nil))
	assert.Len(t, envelopeFields(errors.New("plain")), 1)

	cause := errors.New("yaml: line 3")
	env := apperrors.WrapConfigInvalid(context.Background(), cause, "configuration invalid")
	fields := envelopeFields(env)

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Contains(t, keys, "error_code")
	assert.Contains(t, keys, "correlation_id")
	assert.Contains(t, keys, "error_context")

	var buf bytes.Buffer
	writeFatal(&buf, "Config load failed", env)
	assert.Contains(t, buf.String(), "[CONFIG_INVALID]")
	assert.Contains(t, buf.String(), "configuration invalid")
}

func TestModuleVersionsSorted(t *testing.T) {
	lines := moduleVersions()
	for i := 1; i < len(lines); i++ {
		assert.LessOrEqual(t, lines[i-1], lines[i])
	}
}
