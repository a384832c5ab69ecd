package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

func pt(s string) *session.Point {
	p := session.Point(s)
	return &p
}

func str(s string) *string { return &s }

func TestToCommand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want session.Command
	}{
		{"join object", `{"type":"join","payload":{"name":"Ana"}}`, session.Command{Type: session.CmdJoin, Name: "Ana"}},
		{"join bare name", `{"type":"join","payload":"Ana"}`, session.Command{Type: session.CmdJoin, Name: "Ana"}},
		{"vote number", `{"type":"vote","payload":5}`, session.Command{Type: session.CmdVote, Point: pt("5")}},
		{"vote custom card", `{"type":"vote","payload":"?"}`, session.Command{Type: session.CmdVote, Point: pt("?")}},
		{"vote null retracts", `{"type":"vote","payload":null}`, session.Command{Type: session.CmdVote}},
		{"vote without payload retracts", `{"type":"vote"}`, session.Command{Type: session.CmdVote}},
		{"reveal", `{"type":"reveal"}`, session.Command{Type: session.CmdReveal}},
		{"reset ignores payload", `{"type":"reset","payload":{"x":1}}`, session.Command{Type: session.CmdReset}},
		{"finalize bare number", `{"type":"finalize","payload":8}`, session.Command{Type: session.CmdFinalize, Point: pt("8")}},
		{"finalize object", `{"type":"finalize","payload":{"point":5,"itemId":"X-1"}}`,
			session.Command{Type: session.CmdFinalize, Point: pt("5"), ItemID: "X-1"}},
		{"finalize legacy key", `{"type":"finalize","payload":{"point":3,"jiraKey":"X-2"}}`,
			session.Command{Type: session.CmdFinalize, Point: pt("3"), ItemID: "X-2"}},
		{"fetch bare id", `{"type":"fetchItemDetails","payload":"X-1"}`,
			session.Command{Type: session.CmdFetchItemDetails, ItemID: "X-1"}},
		{"fetch object", `{"type":"fetchItemDetails","payload":{"jiraKey":"X-1"}}`,
			session.Command{Type: session.CmdFetchItemDetails, ItemID: "X-1"}},
		{"fetch missing id passes through", `{"type":"fetchItemDetails"}`,
			session.Command{Type: session.CmdFetchItemDetails}},
		{"update criteria", `{"type":"updateAcceptanceCriteria","payload":{"itemId":"X-1","text":"* a"}}`,
			session.Command{Type: session.CmdUpdateAcceptanceCriteria, ItemID: "X-1", Text: str("* a")}},
		{"update criteria legacy", `{"type":"updateAcceptanceCriteria","payload":{"jiraKey":"X-1","acceptanceCriteria":"* a"}}`,
			session.Command{Type: session.CmdUpdateAcceptanceCriteria, ItemID: "X-1", Text: str("* a")}},
		{"update description legacy", `{"type":"updateDescription","payload":{"jiraKey":"X-1","description":"d"}}`,
			session.Command{Type: session.CmdUpdateDescription, ItemID: "X-1", Text: str("d")}},
		{"update description ignores criteria field", `{"type":"updateDescription","payload":{"jiraKey":"X-1","acceptanceCriteria":"d"}}`,
			session.Command{Type: session.CmdUpdateDescription, ItemID: "X-1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toCommand([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToCommand_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{`not json`, ErrBadJSON},
		{`{"type":"launchMissiles"}`, ErrUnknownType},
		{`{"type":"disconnect"}`, ErrUnknownType},
		{`{"type":"vote","payload":{"point":5}}`, ErrBadPayload},
		{`{"type":"vote","payload":true}`, ErrBadPayload},
		{`{"type":"join","payload":42}`, ErrBadPayload},
		{`{"type":"finalize","payload":{"point":[1]}}`, ErrBadPayload},
		{`{"type":"fetchItemDetails","payload":7}`, ErrBadPayload},
	}
	for _, tc := range tests {
		_, err := toCommand([]byte(tc.in))
		assert.ErrorIs(t, err, tc.want, tc.in)
	}
}
