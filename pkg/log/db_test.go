// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package log

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "logs.db")
	logDB := NewDB(dbPath, &sync.WaitGroup{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, logDB.Init(ctx))
	return logDB
}

func TestQuery(t *testing.T) {
	t.Run("working", func(t *testing.T) {
		msg1 := Log{
			Level: LevelError,
			Time:  4000,
			Src:   "s1",
			File:  "/media/f1.wmv",
			Msg:   "msg1",
		}
		msg2 := Log{
			Level: LevelWarning,
			Time:  3000,
			Src:   "s1",
			Msg:   "msg2",
		}
		msg3 := Log{
			Level: LevelInfo,
			Time:  2000,
			Src:   "s2",
			File:  "/media/f2.wma",
			Msg:   "msg3",
		}

		logDB := newTestDB(t)
		require.NoError(t, logDB.saveLog(msg1))
		require.NoError(t, logDB.saveLog(msg2))
		require.NoError(t, logDB.saveLog(msg3))

		cases := []struct {
			name     string
			input    Query
			expected []Log
		}{
			{
				name: "maxLevel",
				input: Query{
					MaxLevel: LevelWarning,
				},
				expected: []Log{msg1, msg2},
			},
			{
				name: "levelAndSource",
				input: Query{
					MaxLevel: LevelError,
					Sources:  []string{"s1"},
				},
				expected: []Log{msg1},
			},
			{
				name: "multipleSources",
				input: Query{
					Sources: []string{"s1", "s2"},
				},
				expected: []Log{msg1, msg2, msg3},
			},
			{
				name: "singleFile",
				input: Query{
					Files: []string{"/media/f1.wmv"},
				},
				expected: []Log{msg1},
			},
			{
				name: "baseName",
				input: Query{
					Files: []string{"f1.wmv", "f2.wma"},
				},
				expected: []Log{msg1, msg3},
			},
			{
				name:     "all",
				input:    Query{},
				expected: []Log{msg1, msg2, msg3},
			},
			{
				name:     "limit",
				input:    Query{Limit: 2},
				expected: []Log{msg1, msg2},
			},
			{
				name: "limitAfterFilter",
				input: Query{
					Sources: []string{"s2"},
					Limit:   1,
				},
				expected: []Log{msg3},
			},
			{
				name:     "exactTime",
				input:    Query{Before: 4000},
				expected: []Log{msg2, msg3},
			},
			{
				name:     "before",
				input:    Query{Before: 3500},
				expected: []Log{msg2, msg3},
			},
			{
				name:     "afterLatest",
				input:    Query{Before: 9000, Limit: 1},
				expected: []Log{msg1},
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				logs, err := logDB.Query(tc.input)
				require.NoError(t, err)
				require.Equal(t, tc.expected, logs)
			})
		}
	})
	t.Run("empty", func(t *testing.T) {
		logDB := newTestDB(t)
		logs, err := logDB.Query(Query{})
		require.NoError(t, err)
		require.Empty(t, logs)
	})
	t.Run("unmarshalErr", func(t *testing.T) {
		logDB := newTestDB(t)
		err := logDB.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(dbAPIversion))
			return b.Put([]byte("invalid"), []byte("nil"))
		})
		require.NoError(t, err)

		_, err = logDB.Query(Query{})
		require.Error(t, err)
	})
}

func TestDB(t *testing.T) {
	t.Run("maxKeys", func(t *testing.T) {
		logDB := newTestDB(t)
		logDB.maxKeys = 3

		for i := 1; i <= 5; i++ {
			require.NoError(t, logDB.saveLog(Log{Time: UnixMicro(i)}))
		}

		err := logDB.db.View(func(tx *bolt.Tx) error {
			keyN := tx.Bucket([]byte(dbAPIversion)).Stats().KeyN
			require.Equal(t, logDB.maxKeys, keyN)
			return nil
		})
		require.NoError(t, err)

		logs, err := logDB.Query(Query{})
		require.NoError(t, err)
		require.Equal(t, UnixMicro(5), logs[0].Time)
		require.Equal(t, UnixMicro(3), logs[2].Time)
	})
	t.Run("saveLogs", func(t *testing.T) {
		logDB := newTestDB(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		logger := NewMockLogger()
		logger.Start(ctx)

		saveCtx, saveCancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			logDB.SaveLogs(saveCtx, logger)
			close(done)
		}()

		time.Sleep(10 * time.Millisecond)
		logger.Info().Time(time.Unix(10, 0)).Src("app").File("a.wmv").Msg("saved")
		// Each message is accepted after the previous one is handed over.
		logger.Debug().Time(time.Unix(20, 0)).Msg("sync")
		logger.Debug().Time(time.Unix(30, 0)).Msg("sync")

		logs, err := logDB.Query(Query{Files: []string{"a.wmv"}})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		require.Equal(t, "saved", logs[0].Msg)

		saveCancel()
		<-done
	})
	t.Run("openDBerr", func(t *testing.T) {
		logDB := NewDB("/dev/null", &sync.WaitGroup{})
		require.Error(t, logDB.Init(context.Background()))
	})
}
