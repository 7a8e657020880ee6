package chat

import (
	"sort"
	"time"
)

// EntryKind distinguishes the two kinds of display entries produced by
// GroupMessages.
type EntryKind string

const (
	// EntryTimestamp is a separator inserted before the first message of a
	// new calendar day, or before any message more than an hour after its
	// predecessor.
	EntryTimestamp EntryKind = "timestamp"
	// EntryMessage wraps a single chat message.
	EntryMessage EntryKind = "message"
)

const (
	// groupingThreshold is the maximum gap between consecutive messages from
	// the same sender for them to cluster visually.
	groupingThreshold = 20 * time.Second

	// timestampGap is the minimum gap between messages that forces a new
	// timestamp separator within the same day.
	timestampGap = time.Hour
)

// Entry is one element of the display sequence: either a timestamp separator
// or a message with its clustering flags.
type Entry struct {
	Kind EntryKind

	// Label, Day and Time are set on timestamp entries, e.g.
	// "Today 10:00 AM", "Today", "10:00 AM".
	Label string
	Day   string
	Time  string

	// Message is set on message entries.
	Message *Message

	// IsGroupStart and IsGroupEnd mark the visual cluster boundaries of
	// consecutive same-sender messages sent within the grouping threshold.
	IsGroupStart bool
	IsGroupEnd   bool
}

// GroupMessages turns a flat message list into an ordered display sequence of
// timestamp separators and messages. Input order is not trusted: messages are
// sorted ascending by CreatedAt before the single forward pass.
func GroupMessages(messages []Message) []Entry {
	return groupMessagesAt(time.Now(), messages)
}

// groupMessagesAt is GroupMessages with an injectable "now" so day labels
// ("Today", "Yesterday") are testable.
func groupMessagesAt(now time.Time, messages []Message) []Entry {
	if len(messages) == 0 {
		return nil
	}

	sorted := make([]Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})

	entries := make([]Entry, 0, len(sorted))
	var lastDay string
	var lastMsg *Message
	var lastTime time.Time

	for i := range sorted {
		msg := &sorted[i]
		at := time.UnixMilli(msg.CreatedAt)
		day := at.Format("2006-01-02")

		// New day, or a whole-hour gap since the previous message.
		if day != lastDay || (lastMsg != nil && at.Sub(lastTime) >= timestampGap) {
			heading := dayHeading(now, at)
			clock := at.Format("3:04 PM")
			entries = append(entries, Entry{
				Kind:  EntryTimestamp,
				Label: heading + " " + clock,
				Day:   heading,
				Time:  clock,
			})
			lastDay = day
		}

		grouped := lastMsg != nil &&
			lastMsg.SenderID == msg.SenderID &&
			withinGroupingThreshold(lastTime, at)

		var next *Message
		if i+1 < len(sorted) {
			next = &sorted[i+1]
		}
		groupStart := !grouped && next != nil &&
			next.SenderID == msg.SenderID &&
			withinGroupingThreshold(at, time.UnixMilli(next.CreatedAt))
		groupEnd := grouped && (next == nil ||
			next.SenderID != msg.SenderID ||
			!withinGroupingThreshold(at, time.UnixMilli(next.CreatedAt)))

		entries = append(entries, Entry{
			Kind:         EntryMessage,
			Message:      msg,
			IsGroupStart: groupStart,
			IsGroupEnd:   groupEnd || (!grouped && !groupStart),
		})

		lastMsg = msg
		lastTime = at
	}

	return entries
}

// withinGroupingThreshold compares two instants by absolute difference.
func withinGroupingThreshold(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= groupingThreshold
}

// dayHeading renders a calendar-day label relative to now.
func dayHeading(now, at time.Time) string {
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	switch at.Format("2006-01-02") {
	case today:
		return "Today"
	case yesterday:
		return "Yesterday"
	default:
		return at.Format("January 2, 2006")
	}
}
