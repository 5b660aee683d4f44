package settings

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/aerialtv/aerial/internal/domain"
	"github.com/aerialtv/aerial/internal/secrets"
)

// Typed getters over the config store. Two distinct failure kinds drive two
// distinct recoveries: a key that was never written (domain.ErrNotFound)
// silently takes the default and writes it back, while a key whose value
// does not parse (domain.ErrInvalidFormat) logs a warning before the same
// substitution. One malformed value never aborts a load.

// lookup returns the raw value or domain.ErrNotFound.
func (f *File) lookup(section, key string) (any, error) {
	s, ok := f.sections[section]
	if !ok {
		return nil, fmt.Errorf("[%s] %s: %w", section, key, domain.ErrNotFound)
	}
	v, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("[%s] %s: %w", section, key, domain.ErrNotFound)
	}
	return v, nil
}

// substitute applies the default-substitution recovery shared by all getters.
func (f *File) substitute(section, key string, def any, err error) {
	if errors.Is(err, domain.ErrInvalidFormat) {
		log.Printf("[settings] %v, substituting %v", err, def)
	}
	f.Set(section, key, def)
}

// Int reads an integer setting. Booleans coerce (true=1), numeric strings
// parse; anything else substitutes the default.
func (f *File) Int(section, key string, def int) int {
	raw, err := f.lookup(section, key)
	if err != nil {
		f.substitute(section, key, def, err)
		return def
	}
	n, err := parseInt(raw)
	if err != nil {
		f.substitute(section, key, def, fmt.Errorf("[%s] %s: %w", section, key, err))
		return def
	}
	return n
}

// rawInt is Int without the write-back, for reads during OpenFile.
func (f *File) rawInt(section, key string, def int) int {
	raw, err := f.lookup(section, key)
	if err != nil {
		return def
	}
	n, err := parseInt(raw)
	if err != nil {
		return def
	}
	return n
}

// Bool reads a boolean setting stored as a bool, 0/1, or "true"/"false".
func (f *File) Bool(section, key string, def bool) bool {
	defInt := 0
	if def {
		defInt = 1
	}
	return f.Int(section, key, defInt) != 0
}

// Float reads a float setting.
func (f *File) Float(section, key string, def float64) float64 {
	raw, err := f.lookup(section, key)
	if err != nil {
		f.substitute(section, key, def, err)
		return def
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f.substitute(section, key, def,
				fmt.Errorf("[%s] %s: %q: %w", section, key, v, domain.ErrInvalidFormat))
			return def
		}
		return n
	default:
		f.substitute(section, key, def,
			fmt.Errorf("[%s] %s: %T: %w", section, key, raw, domain.ErrInvalidFormat))
		return def
	}
}

// Str reads a string setting. Keys containing "password" are stored
// encrypted; the value decrypts under the version recorded in the file, not
// the current one.
func (f *File) Str(section, key, def string) string {
	raw, err := f.lookup(section, key)
	if err != nil {
		f.setStr(section, key, def)
		return def
	}
	v, ok := raw.(string)
	if !ok {
		v = fmt.Sprintf("%v", raw)
	}

	if isPasswordKey(key) {
		plain, err := secrets.Decrypt(v, f.encryptionVersion)
		if err != nil {
			f.substitute(section, key, def,
				fmt.Errorf("[%s] %s: %v: %w", section, key, err, domain.ErrInvalidFormat))
			return def
		}
		return plain
	}
	return v
}

// setStr writes a string value, encrypting password keys under the file's
// recorded encryption version.
func (f *File) setStr(section, key, value string) {
	if isPasswordKey(key) {
		enc, err := secrets.Encrypt(value, f.encryptionVersion)
		if err == nil {
			f.Set(section, key, enc)
			return
		}
		log.Printf("[settings] cannot encrypt [%s] %s: %v", section, key, err)
	}
	f.Set(section, key, value)
}

// StrList reads a native list setting. Scalars are treated as a one-element
// list; element values of any scalar type stringify.
func (f *File) StrList(section, key string, def []string) []string {
	raw, err := f.lookup(section, key)
	if err != nil {
		f.substitute(section, key, def, err)
		return def
	}
	return toStrList(raw)
}

// IntList reads a native list of integers. Unparseable elements become 0, in
// keeping with the one-bad-element-never-aborts rule.
func (f *File) IntList(section, key string, def []int) []int {
	raw, err := f.lookup(section, key)
	if err != nil {
		f.substitute(section, key, def, err)
		return def
	}
	items := toStrList(raw)
	out := make([]int, len(items))
	for i, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			log.Printf("[settings] [%s] %s element %q is not an integer, using 0", section, key, item)
			n = 0
		}
		out[i] = n
	}
	return out
}

// ─── Coercions ──────────────────────────────────────────────────────────────

func parseInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		switch strings.ToLower(v) {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q: %w", v, domain.ErrInvalidFormat)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%T: %w", raw, domain.ErrInvalidFormat)
	}
}

func toStrList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			if s, ok := item.(string); ok {
				out[i] = s
			} else {
				out[i] = fmt.Sprintf("%v", item)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func isPasswordKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "password")
}
