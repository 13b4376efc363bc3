package eventlog

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

func sampleEvent(id string) interfaces.Event {
	return interfaces.Event{
		ID:        id,
		Type:      interfaces.EventGradeIssued,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Caller:    common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Student:   common.HexToAddress("0x4444444444444444444444444444444444444444"),
		CourseID:  101,
		Grade:     "A",
	}
}

func TestMemoryLog(t *testing.T) {
	log := NewMemoryLog()

	t.Run("empty log", func(t *testing.T) {
		assert.Zero(t, log.LastSeq())
		evs, err := log.EventsSince(1)
		require.NoError(t, err)
		assert.Empty(t, evs)
	})

	t.Run("append assigns increasing sequence", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			seq, err := log.Append(sampleEvent("ev"))
			require.NoError(t, err)
			assert.Equal(t, uint64(i), seq)
		}
		assert.Equal(t, uint64(3), log.LastSeq())
	})

	t.Run("events since", func(t *testing.T) {
		evs, err := log.EventsSince(2)
		require.NoError(t, err)
		require.Len(t, evs, 2)
		assert.Equal(t, uint64(2), evs[0].Seq)
		assert.Equal(t, uint64(3), evs[1].Seq)

		evs, err = log.EventsSince(99)
		require.NoError(t, err)
		assert.Empty(t, evs)
	})

	t.Run("append after close fails", func(t *testing.T) {
		require.NoError(t, log.Close())
		_, err := log.Append(sampleEvent("ev"))
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestFileLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := OpenFileLog(path, nil)
	require.NoError(t, err)

	ev := sampleEvent("ev-1")
	ev.Amount = big.NewInt(10)
	seq, err := log.Append(ev)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	seq, err = log.Append(sampleEvent("ev-2"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	require.NoError(t, log.Close())

	t.Run("events survive reopen", func(t *testing.T) {
		reopened, err := OpenFileLog(path, nil)
		require.NoError(t, err)
		defer reopened.Close()

		assert.Equal(t, uint64(2), reopened.LastSeq())
		evs, err := reopened.EventsSince(1)
		require.NoError(t, err)
		require.Len(t, evs, 2)
		assert.Equal(t, "ev-1", evs[0].ID)
		assert.Equal(t, "A", evs[0].Grade)
		assert.Equal(t, "10", evs[0].Amount.String())
		assert.Equal(t, uint64(2), evs[1].Seq)

		seq, err := reopened.Append(sampleEvent("ev-3"))
		require.NoError(t, err)
		assert.Equal(t, uint64(3), seq)
	})
}

func TestFileLog_TornTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	_, err = log.Append(sampleEvent("ev-1"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	// Simulate a torn write: a partial JSON line at the end of the file.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"ev-2","seq":2,"ty`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reopened.LastSeq())

	// Recovery must leave the file appendable: events acknowledged after
	// dropping the torn tail survive further reopens instead of merging
	// into the partial line.
	seq, err := reopened.Append(sampleEvent("ev-2"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	seq, err = reopened.Append(sampleEvent("ev-3"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
	require.NoError(t, reopened.Close())

	final, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	defer final.Close()
	assert.Equal(t, uint64(3), final.LastSeq())

	evs, err := final.EventsSince(2)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "ev-2", evs[0].ID)
	assert.Equal(t, "ev-3", evs[1].ID)
}

func TestFileLog_TornNewlineRepaired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	_, err = log.Append(sampleEvent("ev-1"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	// A crash can lose just the trailing newline of a complete event.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-1], 0644))

	reopened, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reopened.LastSeq())

	seq, err := reopened.Append(sampleEvent("ev-2"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	require.NoError(t, reopened.Close())

	final, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	defer final.Close()
	assert.Equal(t, uint64(2), final.LastSeq())
}

func TestFileLog_SequenceGapRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	require.NoError(t, os.WriteFile(path, []byte(
		`{"id":"ev-1","seq":1,"type":"grade-issued","timestamp":"2023-11-14T22:13:20Z","caller":"0x3333333333333333333333333333333333333333","account":"0x0000000000000000000000000000000000000000","student":"0x4444444444444444444444444444444444444444","teacher":"0x0000000000000000000000000000000000000000","treasury":"0x0000000000000000000000000000000000000000"}
{"id":"ev-3","seq":3,"type":"grade-issued","timestamp":"2023-11-14T22:13:20Z","caller":"0x3333333333333333333333333333333333333333","account":"0x0000000000000000000000000000000000000000","student":"0x4444444444444444444444444444444444444444","teacher":"0x0000000000000000000000000000000000000000","treasury":"0x0000000000000000000000000000000000000000"}
`), 0644))

	_, err := OpenFileLog(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence gap")
}

func TestFileLog_CorruptMiddleLineRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := OpenFileLog(path, nil)
	require.NoError(t, err)
	_, err = log.Append(sampleEvent("ev-1"))
	require.NoError(t, err)
	_, err = log.Append(sampleEvent("ev-2"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupted := append([]byte("not json\n"), raw...)
	require.NoError(t, os.WriteFile(path, corrupted, 0644))

	_, err = OpenFileLog(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}
