package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tonebot/errors"
)

func TestParseCommand(t *testing.T) {
	req := require.New(t)

	cmd, ok := ParseCommand("!joke")
	req.True(ok)
	req.Equal("joke", cmd.Name)
	req.Empty(cmd.Args)

	cmd, ok = ParseCommand("!ROAST @111")
	req.True(ok)
	req.Equal("roast", cmd.Name)
	req.Equal("@111", cmd.Args)

	cmd, ok = ParseCommand(`!spam @123 "hello world" 5`)
	req.True(ok)
	req.Equal("spam", cmd.Name)
	req.Equal(`@123 "hello world" 5`, cmd.Args)

	_, ok = ParseCommand("good morning")
	req.False(ok)

	_, ok = ParseCommand("! leading space")
	req.False(ok)
}

func TestParseBroadcastArgs(t *testing.T) {
	req := require.New(t)

	args, err := ParseBroadcastArgs(`@123 "hello world" 5`)
	req.NoError(err)
	req.NotNil(args.Mention)
	req.Equal(ParticipantID("123"+DirectSuffix), *args.Mention)
	req.Equal("hello world", args.Text)
	req.Equal(5, args.Count)

	args, err = ParseBroadcastArgs(`"hi" 3`)
	req.NoError(err)
	req.Nil(args.Mention)
	req.Equal("hi", args.Text)
	req.Equal(3, args.Count)
}

func TestParseBroadcastArgs_Rejections(t *testing.T) {
	tests := []struct {
		name string
		args string
		want error
	}{
		{"count above range", `"hi" 21`, errors.ErrCountOutOfRange},
		{"count zero", `"hi" 0`, errors.ErrCountOutOfRange},
		{"missing quotes", `hi 3`, errors.ErrMalformedBroadcast},
		{"missing count", `"hi"`, errors.ErrMalformedBroadcast},
		{"empty", ``, errors.ErrMalformedBroadcast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBroadcastArgs(tt.args)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
