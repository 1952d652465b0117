// Package bridge turns the raw inputs the host hands to open into an
// Environment: key=value lookups, argv and environment sequences, and
// high-level wrappers around the conversation and printf callbacks.
package bridge

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/errors"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Lookup is a parsed key=value array. Keys are unique.
type Lookup map[string]string

// ParseKeyValues parses host entries of the form key=value, splitting on the
// first '='. When a key repeats, the last occurrence wins. An entry without
// '=' breaks the host contract.
func ParseKeyValues(call string, entries []string) (Lookup, error) {
	l := make(Lookup, len(entries))
	for i, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, &errors.ContractViolationError{
				Call:   call,
				Detail: fmt.Sprintf("entry %d (%q) is not of the form key=value", i, entry),
			}
		}
		l[key] = value
	}
	return l, nil
}

// Get returns the value for key and whether it was present.
func (l Lookup) Get(key string) (string, bool) {
	v, ok := l[key]
	return v, ok
}

// String returns the value for key, or def when absent.
func (l Lookup) String(key, def string) string {
	if v, ok := l[key]; ok {
		return v
	}
	return def
}

// Bool parses key as a host boolean. Absent or unparsable values report
// ok=false.
func (l Lookup) Bool(key string) (value, ok bool) {
	v, present := l[key]
	if !present {
		return false, false
	}
	return parseBool(v)
}

// Int parses key as a base-10 integer.
func (l Lookup) Int(key string) (int64, bool) {
	v, present := l[key]
	if !present {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Uint parses key as a base-10 unsigned integer (uids, gids, pids).
func (l Lookup) Uint(key string) (uint64, bool) {
	v, present := l[key]
	if !present {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Keys returns the keys in sorted order.
func (l Lookup) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode copies the lookup into target, a pointer to a struct with json
// tags, then runs validator tags on it. Every value is a string on the wire;
// numeric and boolean fields need the ",string" json tag option.
func (l Lookup) Decode(target any) error {
	data, err := json.Marshal(map[string]string(l))
	if err != nil {
		return &errors.OptionsError{Err: fmt.Errorf("failed to marshal options: %w", err)}
	}
	if err := json.Unmarshal(data, target); err != nil {
		var te *json.UnmarshalTypeError
		if stdErrors.As(err, &te) {
			return &errors.OptionsError{Field: te.Field, Err: err}
		}
		return &errors.OptionsError{Err: err}
	}
	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if stdErrors.As(err, &verrs) && len(verrs) > 0 {
			return &errors.OptionsError{Field: verrs[0].Field(), Err: err}
		}
		return &errors.OptionsError{Err: err}
	}
	return nil
}

// parseBool accepts the spellings sudo uses in its info arrays.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}
