package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMySQLAgent_ReadQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "args", args: []string{"how many", "users?"}, want: "how many users?"},
		{name: "stdin", stdin: "  which tables\nexist?\n", want: "which tables\nexist?"},
		{name: "args win over stdin", args: []string{"a"}, stdin: "b", want: "a"},
		{name: "empty", stdin: " \n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readQuestion(tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
