package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDirFromArgs(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"analyze", "INFY"}, ""},
		{[]string{"--config", "/tmp/cfg", "analyze", "INFY"}, "/tmp/cfg"},
		{[]string{"analyze", "INFY", "--config=/etc/riskengine"}, "/etc/riskengine"},
		{[]string{"analyze", "--", "--config", "/ignored"}, ""},
		{[]string{"analyze", "--config"}, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, configDirFromArgs(c.args), "%v", c.args)
	}
}
