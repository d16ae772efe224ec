package boardlog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/willcgage/wirelessboard/internal/logview"
)

func TestPurge(t *testing.T) {
	ctx := context.Background()

	t.Run("should clear history on disk and in the view", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)
		err = appendRecords(env, 0, 40)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		_, err = bc.client.Refresh(ctx)
		assert.NoError(t, err)
		assert.Len(t, bc.client.Snapshot().Entries, 40)

		err = bc.client.Purge(ctx)
		assert.NoError(t, err)
		view := bc.client.Snapshot()
		assert.Empty(t, view.Entries)
		assert.Nil(t, view.NextCursor)
		assert.False(t, view.HasMore)
		assert.Equal(t, logview.UnorderedIndex, view.LatestIndex)
		assert.False(t, view.LiveTail)

		logFile, err := env.config.LogFile()
		assert.NoError(t, err)
		info, err := os.Stat(logFile)
		assert.NoError(t, err)
		assert.Zero(t, info.Size())

		bc.sync()
		var purges []logview.UpdateEvent
		for _, event := range bc.updated.all() {
			if event.Reason == logview.UpdatePurge {
				purges = append(purges, event)
			}
		}
		if assert.Len(t, purges, 1) {
			assert.Equal(t, 0, purges[0].Fresh)
			assert.Equal(t, 0, purges[0].Total)
		}
	})

	t.Run("should start polling from scratch after a purge", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)
		err = appendRecords(env, 0, 25)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		_, err = bc.client.Refresh(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(24), bc.client.Snapshot().LatestIndex)

		err = bc.client.Purge(ctx)
		assert.NoError(t, err)

		// line numbering restarts with the new file
		err = appendRecords(env, 0, 3)
		assert.NoError(t, err)
		fresh, err := bc.client.LoadPage(ctx, logview.DirectionNewer, false)
		assert.NoError(t, err)
		assert.Equal(t, 3, fresh)
		view := bc.client.Snapshot()
		assert.Len(t, view.Entries, 3)
		assert.Equal(t, int64(2), view.Entries[0].Index)
		assert.Equal(t, int64(2), view.LatestIndex)
	})
}
