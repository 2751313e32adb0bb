package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(pw), nil
	}
}

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "line", input: "  Alice \n", want: "Alice"},
		{name: "last line without newline", input: "Bob", want: "Bob"},
		{name: "crlf", input: "Carol\r\n", want: "Carol"},
		{name: "empty input", input: "", wantErr: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(rdr(tt.input), "Name", &out)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Name: ", out.String())
		})
	}
}

func TestGetPassword(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		stubPassword(t, "s3cret", nil)
		var out bytes.Buffer
		pw, err := GetPassword(&out, "Password")
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cret"), pw)
		assert.Equal(t, "Password: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		stubPassword(t, "", errors.New("boom"))
		_, err := GetPassword(io.Discard, "Password")
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		stubPassword(t, "", nil)
		_, err := GetPassword(io.Discard, "Password")
		require.Error(t, err)
	})
}
