package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
)

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    Lookup
	}{
		{
			name:    "settings example",
			entries: []string{"progname=foo", "runas_user=root"},
			want:    Lookup{"progname": "foo", "runas_user": "root"},
		},
		{
			name:    "value containing equals",
			entries: []string{"sudoers_file=/etc/sudoers", "env=PATH=/usr/bin:/bin"},
			want:    Lookup{"sudoers_file": "/etc/sudoers", "env": "PATH=/usr/bin:/bin"},
		},
		{
			name:    "empty value",
			entries: []string{"tty="},
			want:    Lookup{"tty": ""},
		},
		{
			name:    "last duplicate wins",
			entries: []string{"user=alice", "uid=1000", "user=bob"},
			want:    Lookup{"user": "bob", "uid": "1000"},
		},
		{
			name:    "empty array",
			entries: nil,
			want:    Lookup{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeyValues("open(settings)", tt.entries)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyValues_MissingSeparator(t *testing.T) {
	_, err := ParseKeyValues("open(user_info)", []string{"user=alice", "garbage"})
	require.Error(t, err)

	var cv *errors.ContractViolationError
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "open(user_info)", cv.Call)
	assert.Contains(t, cv.Detail, "garbage")
}

func TestLookup_NotFound(t *testing.T) {
	l, err := ParseKeyValues("open(settings)", []string{"progname=foo", "runas_user=root"})
	require.NoError(t, err)

	v, ok := l.Get("progname")
	assert.True(t, ok)
	assert.Equal(t, "foo", v)

	v, ok = l.Get("user_command")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, "fallback", l.String("user_command", "fallback"))
}

func TestLookup_TypedAccessors(t *testing.T) {
	l := Lookup{
		"iolog_ttyout": "true",
		"iolog_stdin":  "false",
		"iolog_stdout": "maybe",
		"uid":          "1000",
		"pid":          "-5",
		"cwd":          "/root",
	}

	b, ok := l.Bool("iolog_ttyout")
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = l.Bool("iolog_stdin")
	assert.True(t, ok)
	assert.False(t, b)

	_, ok = l.Bool("iolog_stdout")
	assert.False(t, ok, "unparsable bool")

	_, ok = l.Bool("iolog_stderr")
	assert.False(t, ok, "missing bool")

	u, ok := l.Uint("uid")
	assert.True(t, ok)
	assert.Equal(t, uint64(1000), u)

	_, ok = l.Uint("pid")
	assert.False(t, ok)

	n, ok := l.Int("pid")
	assert.True(t, ok)
	assert.Equal(t, int64(-5), n)

	_, ok = l.Int("cwd")
	assert.False(t, ok)

	assert.Equal(t, []string{"cwd", "iolog_stdin", "iolog_stdout", "iolog_ttyout", "pid", "uid"}, l.Keys())
}

type testOptions struct {
	Output  string `json:"output" validate:"required"`
	MaxSize int    `json:"max_size,string" validate:"omitempty,max=1048576"`
	Verbose bool   `json:"verbose,string"`
}

func TestLookup_Decode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var opts testOptions
		err := Lookup{"output": "/var/log/io", "max_size": "4096", "verbose": "true", "extra": "x"}.Decode(&opts)
		require.NoError(t, err)
		assert.Equal(t, testOptions{Output: "/var/log/io", MaxSize: 4096, Verbose: true}, opts)
	})

	t.Run("missing required", func(t *testing.T) {
		var opts testOptions
		err := Lookup{"verbose": "false"}.Decode(&opts)
		var oe *errors.OptionsError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, "Output", oe.Field)
	})

	t.Run("bad number", func(t *testing.T) {
		var opts testOptions
		err := Lookup{"output": "x", "max_size": "big"}.Decode(&opts)
		var oe *errors.OptionsError
		require.ErrorAs(t, err, &oe)
	})

	t.Run("fails validation", func(t *testing.T) {
		var opts testOptions
		err := Lookup{"output": "x", "max_size": "99999999"}.Decode(&opts)
		var oe *errors.OptionsError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, "MaxSize", oe.Field)
	})
}

func TestParseKeyValues_PropertyLossless(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,12}`), 1, 8, rapid.ID[string]).Draw(t, "keys")
		want := make(Lookup, len(keys))
		entries := make([]string, 0, len(keys))
		for _, k := range keys {
			v := rapid.StringMatching(`[ -~]{0,24}`).Draw(t, "value")
			want[k] = v
			entries = append(entries, k+"="+v)
		}

		got, err := ParseKeyValues("test", entries)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d keys, want %d", len(got), len(want))
		}
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("key %q: got %q, want %q", k, got[k], v)
			}
		}
	})
}

func TestParseKeyValues_PropertyLastDuplicateWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "key")
		values := rapid.SliceOfN(rapid.StringMatching(`[a-z=/]{0,10}`), 1, 6).Draw(t, "values")

		entries := make([]string, 0, len(values))
		for _, v := range values {
			entries = append(entries, key+"="+v)
		}

		got, err := ParseKeyValues("test", entries)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last := values[len(values)-1]
		if got[key] != last {
			t.Fatalf("got %q, want last value %q", got[key], last)
		}
		if strings.Count(last, "=") > 0 && !strings.Contains(got[key], "=") {
			t.Fatalf("lost '=' from %q", last)
		}
	})
}
