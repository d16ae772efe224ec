package boardlog

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"github.com/willcgage/wirelessboard/internal/logview"
)

func TestLogSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("should sync the board's vocabulary and settings", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		err = bc.client.SyncSettings(ctx)
		assert.NoError(t, err)

		view := bc.client.Snapshot()
		assert.Equal(t, logstore.LevelNames(), view.Levels)
		assert.Equal(t, logstore.Sources(), view.Sources)
		assert.Equal(t, logstore.DefaultFileLevel, view.Settings.Level)
		assert.Equal(t, logstore.DefaultConsoleLevel, view.Settings.ConsoleLevel)
		assert.Equal(t, logstore.DefaultBackups, view.Settings.Backups)
	})

	t.Run("should apply a settings patch end to end", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		level := "debug"
		backups := 9
		err = bc.client.UpdateSettings(ctx, logstore.SettingsPatch{Level: &level, Backups: &backups})
		assert.NoError(t, err)

		view := bc.client.Snapshot()
		assert.Equal(t, logstore.DebugLevel, view.Settings.Level)
		assert.Equal(t, 9, view.Settings.Backups)

		// the patch is persisted board side
		current := env.settings.Current()
		assert.Equal(t, logstore.DebugLevel, current.Level)
		assert.Equal(t, 9, current.Backups)

		bc.sync()
		status, ok := bc.status.last()
		assert.True(t, ok)
		assert.Equal(t, logview.StatusOK, status.Kind)
		assert.Equal(t, "Logging settings updated", status.Message)
	})

	t.Run("should reject a malformed levels patch verbatim", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		err = bc.client.SyncSettings(ctx)
		assert.NoError(t, err)

		err = bc.client.UpdateSettings(ctx, logstore.SettingsPatch{Levels: json.RawMessage(`"chatty"`)})
		assert.Error(t, err)
		var apiErr *logview.APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "logging.levels must be an object", apiErr.Message)

		// the rejected patch changes nothing on either side
		assert.Equal(t, logstore.DefaultFileLevel, bc.client.Snapshot().Settings.Level)
		assert.Equal(t, logstore.DefaultFileLevel, env.settings.Current().Level)

		bc.sync()
		status, ok := bc.status.last()
		assert.True(t, ok)
		assert.Equal(t, logview.StatusError, status.Kind)
		assert.Equal(t, "logging.levels must be an object", status.Message)
	})

	t.Run("should route overrides through to the page filter vocabulary", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		overrides, err := json.Marshal(map[string]string{"wirelessboard.discovery": "error"})
		assert.NoError(t, err)
		err = bc.client.UpdateSettings(ctx, logstore.SettingsPatch{Levels: json.RawMessage(overrides)})
		assert.NoError(t, err)

		view := bc.client.Snapshot()
		assert.Equal(t, logstore.ErrorLevel, view.Settings.Levels["wirelessboard.discovery"])
		assert.Equal(t, logstore.ErrorLevel, env.settings.Current().EffectiveLevel("wirelessboard.discovery"))
	})
}
