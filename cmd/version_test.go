package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommand(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	tests := []struct {
		version string
		want    string
	}{
		{version: "1.2.3-test", want: "wikisync version 1.2.3-test\n"},
		{version: "", want: "wikisync version \n"},
	}
	for _, tt := range tests {
		rootCmd.Version = tt.version
		versionCmd := newVersionCmd()
		var buf bytes.Buffer
		versionCmd.SetOut(&buf)
		versionCmd.Run(versionCmd, nil)
		assert.Equal(t, tt.want, buf.String())
	}
}

func TestVersionCommandHelp(t *testing.T) {
	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.SetErr(&buf)
	versionCmd.SetArgs([]string{"--help"})

	assert.NoError(t, versionCmd.Execute())
	assert.Contains(t, buf.String(), "All software has versions")
}
