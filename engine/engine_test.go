package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
)

func TestSamePath(t *testing.T) {
	abs, err := filepath.Abs("assets/lumen.toml")
	require.NoError(t, err)

	assert.True(t, samePath("assets/lumen.toml", "assets/../assets/lumen.toml"))
	assert.True(t, samePath("assets/lumen.toml", abs))
	assert.False(t, samePath("assets/lumen.toml", "assets/other.toml"))
	assert.False(t, samePath("", "assets/lumen.toml"))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.True(t, core.IsPrecondition(err))
	_, err = New(&Game{})
	assert.True(t, core.IsPrecondition(err))
}

func TestRunBeforeInitializeIsPrecondition(t *testing.T) {
	e, err := New(&Game{Config: config.Default()})
	require.NoError(t, err)
	assert.Equal(t, EngineStageUninitialized, e.Stage())

	err = e.Run()
	assert.True(t, core.IsPrecondition(err))
	require.NoError(t, e.assetManager.Shutdown())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "unknown", Stage(200).String())
}
