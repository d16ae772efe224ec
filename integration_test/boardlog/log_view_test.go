package boardlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"github.com/willcgage/wirelessboard/internal/logview"
)

func TestLogViewPaging(t *testing.T) {
	ctx := context.Background()

	t.Run("should page backward through history and tail new entries forward", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)
		err = appendRecords(env, 0, 250)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		bc.client.SetPageLimit(100)

		fresh, err := bc.client.Refresh(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 100, fresh)
		view := bc.client.Snapshot()
		assert.Len(t, view.Entries, 100)
		assert.Equal(t, int64(249), view.Entries[0].Index)
		assert.Equal(t, "slot scan 249", view.Entries[0].Message)
		assert.Equal(t, int64(150), view.Entries[99].Index)
		if assert.NotNil(t, view.NextCursor) {
			assert.Equal(t, "150", *view.NextCursor)
		}
		assert.True(t, view.HasMore)
		assert.Equal(t, int64(249), view.LatestIndex)

		fresh, err = bc.client.LoadOlder(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 100, fresh)
		fresh, err = bc.client.LoadOlder(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 50, fresh)

		view = bc.client.Snapshot()
		assert.Len(t, view.Entries, 250)
		assert.False(t, view.HasMore)
		assert.Equal(t, int64(0), view.Entries[249].Index)
		if assert.NotNil(t, view.NextCursor) {
			assert.Equal(t, "0", *view.NextCursor)
		}

		// asking for more below the oldest entry is a no-op
		fresh, err = bc.client.LoadOlder(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, fresh)
		view = bc.client.Snapshot()
		assert.Len(t, view.Entries, 250)
		if assert.NotNil(t, view.NextCursor) {
			assert.Equal(t, "0", *view.NextCursor)
		}

		// the board keeps logging while we read
		err = appendRecords(env, 250, 5)
		assert.NoError(t, err)
		fresh, err = bc.client.LoadPage(ctx, logview.DirectionNewer, false)
		assert.NoError(t, err)
		assert.Equal(t, 5, fresh)
		view = bc.client.Snapshot()
		assert.Len(t, view.Entries, 255)
		assert.Equal(t, int64(254), view.Entries[0].Index)
		assert.Equal(t, "slot scan 254", view.Entries[0].Message)
		assert.Equal(t, int64(254), view.LatestIndex)

		bc.sync()
		var newer []logview.UpdateEvent
		for _, event := range bc.updated.all() {
			if event.Reason == logview.UpdateNewer {
				newer = append(newer, event)
			}
		}
		if assert.Len(t, newer, 1) {
			assert.Equal(t, 5, newer[0].Fresh)
			assert.Equal(t, 255, newer[0].Total)
		}
	})

	t.Run("should serve an empty view from a fresh board", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		fresh, err := bc.client.Refresh(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, fresh)
		view := bc.client.Snapshot()
		assert.Empty(t, view.Entries)
		assert.Nil(t, view.NextCursor)
		assert.False(t, view.HasMore)
		assert.Equal(t, logview.UnorderedIndex, view.LatestIndex)

		bc.sync()
		status, ok := bc.status.last()
		assert.True(t, ok)
		assert.Equal(t, logview.StatusInfo, status.Kind)
		assert.Equal(t, "No log entries", status.Message)
	})

	t.Run("should apply level source and search filters on the wire", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)
		records := []logstore.Record{
			{Timestamp: testBase, Level: logstore.DebugLevel, Logger: "wirelessboard.config", Source: "core", Message: "config reloaded"},
			{Timestamp: testBase.Add(time.Second), Level: logstore.InfoLevel, Logger: "wirelessboard.discovery", Source: "discovery", Message: "found receiver ULXD4Q"},
			{Timestamp: testBase.Add(2 * time.Second), Level: logstore.WarningLevel, Logger: "wirelessboard.device", Source: "device", Message: "slot 3 rf level low"},
			{Timestamp: testBase.Add(3 * time.Second), Level: logstore.ErrorLevel, Logger: "wirelessboard.device", Source: "device", Message: "slot 3 offline"},
		}
		for _, record := range records {
			assert.NoError(t, env.appender.Append(record))
		}

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		err = bc.client.SyncSettings(ctx)
		assert.NoError(t, err)

		bc.client.SetFilters(logview.Filters{Level: "WARNING", Sources: []string{"device"}})
		_, err = bc.client.Refresh(ctx)
		assert.NoError(t, err)
		view := bc.client.Snapshot()
		assert.Len(t, view.Entries, 2)
		assert.Equal(t, "slot 3 offline", view.Entries[0].Message)
		assert.Equal(t, "slot 3 rf level low", view.Entries[1].Message)
		assert.False(t, view.HasMore)

		bc.client.SetFilters(logview.Filters{Search: "receiver"})
		_, err = bc.client.Refresh(ctx)
		assert.NoError(t, err)
		view = bc.client.Snapshot()
		assert.Len(t, view.Entries, 1)
		assert.Equal(t, "found receiver ULXD4Q", view.Entries[0].Message)
		assert.Equal(t, "discovery", view.Entries[0].Source)
	})

	t.Run("should keep paging consistent while the board appends", func(t *testing.T) {
		err := resetBoard(env)
		assert.NoError(t, err)
		err = appendRecords(env, 0, 60)
		assert.NoError(t, err)

		bc, err := newBoardClient(env, logger)
		assert.NoError(t, err)
		bc.client.SetPageLimit(20)
		_, err = bc.client.Refresh(ctx)
		assert.NoError(t, err)

		// appends between older pages must not shift or duplicate history
		err = appendRecords(env, 60, 7)
		assert.NoError(t, err)
		fresh, err := bc.client.LoadOlder(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 20, fresh)

		view := bc.client.Snapshot()
		assert.Len(t, view.Entries, 40)
		seen := make(map[int64]bool, len(view.Entries))
		for _, entry := range view.Entries {
			assert.False(t, seen[entry.Index])
			seen[entry.Index] = true
		}
		assert.Equal(t, int64(59), view.Entries[0].Index)
		assert.Equal(t, int64(20), view.Entries[39].Index)

		fresh, err = bc.client.LoadPage(ctx, logview.DirectionNewer, false)
		assert.NoError(t, err)
		assert.Equal(t, 7, fresh)
		view = bc.client.Snapshot()
		assert.Len(t, view.Entries, 47)
		assert.Equal(t, int64(66), view.Entries[0].Index)
	})
}
