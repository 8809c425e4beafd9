package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/appointment-scheduler/internal/config"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		args []string
		want command
	}{
		{args: nil, want: command{name: "up"}},
		{args: []string{"up"}, want: command{name: "up"}},
		{args: []string{"down"}, want: command{name: "down"}},
		{args: []string{"force", "2"}, want: command{name: "force", version: 2}},
	}
	for _, tc := range cases {
		got, err := parseCommand(tc.args)
		require.NoError(t, err, "args %v", tc.args)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseCommandRejectsBadArgs(t *testing.T) {
	for _, args := range [][]string{{"sideways"}, {"force"}, {"force", "two"}, {"down", "3"}} {
		_, err := parseCommand(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run(&appconfig.Config{}, command{name: "up"}, logging.New("error"))
	assert.EqualError(t, err, "DATABASE_URL is required")
}
