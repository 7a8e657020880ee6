package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at builds a local-time instant so day bucketing is stable regardless of the
// host timezone.
func at(hour, min, sec int) int64 {
	return time.Date(2025, 7, 30, hour, min, sec, 0, time.Local).UnixMilli()
}

func msgAt(id string, sender int, createdAt int64) Message {
	return Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: 99,
		Content:     "msg " + id,
		CreatedAt:   createdAt,
	}
}

func kinds(entries []Entry) []EntryKind {
	out := make([]EntryKind, len(entries))
	for i, e := range entries {
		out[i] = e.Kind
	}
	return out
}

func TestGroupMessages_TimestampsOnHourGap(t *testing.T) {
	messages := []Message{
		msgAt("1", 1, at(10, 0, 0)),
		msgAt("2", 1, at(10, 30, 0)),
		msgAt("3", 1, at(12, 0, 0)), // 1.5 hours later
	}

	entries := GroupMessages(messages)

	// One heading at the start, one for the hour gap.
	require.Len(t, entries, 5)
	assert.Equal(t, []EntryKind{
		EntryTimestamp, EntryMessage, EntryMessage, EntryTimestamp, EntryMessage,
	}, kinds(entries))
	assert.Equal(t, "1", entries[1].Message.ID)
	assert.Equal(t, "2", entries[2].Message.ID)
	assert.Equal(t, "3", entries[4].Message.ID)
}

func TestGroupMessages_Empty(t *testing.T) {
	assert.Empty(t, GroupMessages(nil))
	assert.Empty(t, GroupMessages([]Message{}))
}

func TestGroupMessages_SingleMessage(t *testing.T) {
	entries := GroupMessages([]Message{msgAt("1", 1, at(10, 0, 0))})

	require.Len(t, entries, 2)
	assert.Equal(t, EntryTimestamp, entries[0].Kind)
	assert.Equal(t, EntryMessage, entries[1].Kind)
	// A lone message is its own cluster end.
	assert.False(t, entries[1].IsGroupStart)
	assert.True(t, entries[1].IsGroupEnd)
}

func TestGroupMessages_HourGapBoundary(t *testing.T) {
	messages := []Message{
		msgAt("1", 1, at(10, 0, 0)),
		msgAt("2", 1, at(11, 1, 0)),  // 1 hour 1 minute later
		msgAt("3", 1, at(12, 30, 0)), // 1.5 hours later
	}

	entries := GroupMessages(messages)

	// Every message sits behind its own heading.
	require.Len(t, entries, 6)
	assert.Equal(t, []EntryKind{
		EntryTimestamp, EntryMessage, EntryTimestamp, EntryMessage, EntryTimestamp, EntryMessage,
	}, kinds(entries))
}

func TestGroupMessages_SubHourGapNoTimestamp(t *testing.T) {
	messages := []Message{
		msgAt("1", 1, at(10, 0, 0)),
		msgAt("2", 1, at(10, 59, 0)), // 59 minutes: same heading
	}

	entries := GroupMessages(messages)

	require.Len(t, entries, 3)
	assert.Equal(t, []EntryKind{EntryTimestamp, EntryMessage, EntryMessage}, kinds(entries))
}

func TestGroupMessages_SenderClustering(t *testing.T) {
	messages := []Message{
		msgAt("1", 1, at(10, 0, 0)),
		msgAt("2", 1, at(10, 0, 10)), // within 20s of previous, same sender
		msgAt("3", 1, at(10, 0, 15)),
		msgAt("4", 2, at(10, 0, 18)), // different sender breaks the cluster
	}

	entries := GroupMessages(messages)
	require.Len(t, entries, 5)

	first := entries[1]
	assert.True(t, first.IsGroupStart)
	assert.False(t, first.IsGroupEnd)

	middle := entries[2]
	assert.False(t, middle.IsGroupStart)
	assert.False(t, middle.IsGroupEnd)

	last := entries[3]
	assert.False(t, last.IsGroupStart)
	assert.True(t, last.IsGroupEnd)

	other := entries[4]
	assert.False(t, other.IsGroupStart)
	assert.True(t, other.IsGroupEnd)
}

func TestGroupMessages_ThresholdBreaksCluster(t *testing.T) {
	messages := []Message{
		msgAt("1", 1, at(10, 0, 0)),
		msgAt("2", 1, at(10, 0, 30)), // 30s gap exceeds the 20s threshold
	}

	entries := GroupMessages(messages)
	require.Len(t, entries, 3)

	assert.False(t, entries[1].IsGroupStart)
	assert.True(t, entries[1].IsGroupEnd)
	assert.False(t, entries[2].IsGroupStart)
	assert.True(t, entries[2].IsGroupEnd)
}

func TestGroupMessages_SortsUntrustedInput(t *testing.T) {
	messages := []Message{
		msgAt("3", 1, at(12, 0, 0)),
		msgAt("1", 1, at(10, 0, 0)),
		msgAt("2", 1, at(10, 30, 0)),
	}

	entries := GroupMessages(messages)
	require.Len(t, entries, 5)
	assert.Equal(t, "1", entries[1].Message.ID)
	assert.Equal(t, "2", entries[2].Message.ID)
	assert.Equal(t, "3", entries[4].Message.ID)
}

func TestGroupMessages_DayHeadings(t *testing.T) {
	now := time.Date(2025, 7, 31, 15, 0, 0, 0, time.Local)
	messages := []Message{
		msgAt("1", 1, time.Date(2025, 7, 29, 9, 0, 0, 0, time.Local).UnixMilli()),
		msgAt("2", 1, time.Date(2025, 7, 30, 9, 0, 0, 0, time.Local).UnixMilli()),
		msgAt("3", 1, time.Date(2025, 7, 31, 9, 0, 0, 0, time.Local).UnixMilli()),
	}

	entries := groupMessagesAt(now, messages)
	require.Len(t, entries, 6)
	assert.Equal(t, "July 29, 2025", entries[0].Day)
	assert.Equal(t, "Yesterday", entries[2].Day)
	assert.Equal(t, "Today", entries[4].Day)
	assert.Equal(t, "9:00 AM", entries[0].Time)
}
