package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dev", "dev"},
		{"", ""},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in))
	}
}

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() {
		version, commit, date = origVersion, origCommit, origDate
	}()

	SetVersionInfo("1.0.0", "abc1234", "2026-01-01")

	assert.Equal(t, "1.0.0", GetVersion())
	assert.Equal(t, "abc1234", commit)
	assert.Equal(t, "2026-01-01", date)
}

func TestParseOnOff(t *testing.T) {
	for _, v := range []string{"on", "true", "yes"} {
		got, err := parseOnOff("--ack", v)
		assert.NoError(t, err)
		assert.True(t, got)
	}
	for _, v := range []string{"off", "false", "no"} {
		got, err := parseOnOff("--ack", v)
		assert.NoError(t, err)
		assert.False(t, got)
	}

	_, err := parseOnOff("--ack", "maybe")
	assert.Error(t, err)
}
