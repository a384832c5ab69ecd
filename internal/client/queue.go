package client

import (
	"strings"
	"unicode"

	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

// ParseStoryList splits pasted item keys on newlines, commas and spaces.
func ParseStoryList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// StoryQueue is the moderator's local list of items to estimate in order.
// The server never sees it; moving through it produces the commands that
// bring every participant to the new item.
type StoryQueue struct {
	items []string
	index int
}

// Set replaces the queue and returns the commands that load its first item.
func (q *StoryQueue) Set(items []string) []types.ClientMessage {
	q.items = append([]string(nil), items...)
	q.index = 0
	if len(q.items) == 0 {
		return nil
	}
	return []types.ClientMessage{FetchItem(q.items[0])}
}

func (q *StoryQueue) Clear() {
	q.items = nil
	q.index = 0
}

func (q *StoryQueue) Len() int { return len(q.items) }

func (q *StoryQueue) Current() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	return q.items[q.index], true
}

// Position is the 1-based index of the current item and the queue length.
func (q *StoryQueue) Position() (int, int) {
	if len(q.items) == 0 {
		return 0, 0
	}
	return q.index + 1, len(q.items)
}

func (q *StoryQueue) HasNext() bool { return len(q.items) == 0 || q.index < len(q.items)-1 }

func (q *StoryQueue) HasPrevious() bool { return q.index > 0 }

// Next advances to the following item. With an empty queue it only starts a
// fresh round. It reports false at the end of the queue.
func (q *StoryQueue) Next() ([]types.ClientMessage, bool) {
	if len(q.items) == 0 {
		return []types.ClientMessage{Reset()}, true
	}
	if !q.HasNext() {
		return nil, false
	}
	q.index++
	return q.moved(), true
}

func (q *StoryQueue) Previous() ([]types.ClientMessage, bool) {
	if !q.HasPrevious() {
		return nil, false
	}
	q.index--
	return q.moved(), true
}

func (q *StoryQueue) moved() []types.ClientMessage {
	return []types.ClientMessage{Reset(), FetchItem(q.items[q.index])}
}
