package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadBounds(t *testing.T) {
	t.Parallel()

	_, err := New(Config{MinLength: -1})
	require.Error(t, err)

	_, err = New(Config{MinLength: 10, MaxLength: 5})
	require.Error(t, err)
}

func TestTermValidator_Validate(t *testing.T) {
	t.Parallel()

	v := MustNew(Config{})

	cases := []struct {
		name string
		term string
		want bool
	}{
		{name: "normal phrase", term: "marketing digital", want: true},
		{name: "empty", term: "", want: false},
		{name: "too short", term: "a", want: false},
		{name: "min length boundary", term: "ab", want: true},
		{name: "max length boundary", term: strings.Repeat("x", 100), want: true},
		{name: "over max length", term: strings.Repeat("x", 101), want: false},
		{name: "control character", term: "foo\x01bar", want: false},
		{name: "unicode counted by rune", term: strings.Repeat("ç", 100), want: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := v.Validate(tc.term)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTermValidator_AllowedChars(t *testing.T) {
	t.Parallel()

	v := MustNew(Config{AllowedChars: "abcdefghijklmnopqrstuvwxyz "})

	ok, err := v.Validate("marketing digital")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Validate("marketing-digital")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = v.Validate("seo 2024")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklistValidator(t *testing.T) {
	t.Parallel()

	inner := MustNew(Config{})
	v := NewBlacklist(inner, []string{"Casino", " free money ", ""})

	ok, err := v.Validate("marketing digital")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Validate("best online casino bonus")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = v.Validate("get free money fast")
	require.NoError(t, err)
	require.False(t, ok)

	// still defers to the wrapped validator for shape
	ok, err = v.Validate("x")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklistValidator_WrapsErrors(t *testing.T) {
	t.Parallel()

	inner := faultyValidator{err: errors.New("boom")}
	v := NewBlacklist(inner, nil)

	_, err := v.Validate("anything")
	require.ErrorContains(t, err, "boom")
}

type faultyValidator struct {
	err error
}

func (f faultyValidator) Validate(string) (bool, error) {
	return false, f.err
}
