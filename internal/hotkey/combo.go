package hotkey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conneroisu/hotsnip/internal/errors"
)

// Modifier is a bitmask of modifier keys. Values match the Win32
// RegisterHotKey MOD_* flags.
type Modifier uint32

const (
	ModAlt   Modifier = 0x0001
	ModCtrl  Modifier = 0x0002
	ModShift Modifier = 0x0004
	ModWin   Modifier = 0x0008

	modAll = ModAlt | ModCtrl | ModShift | ModWin
)

// Key is a virtual-key code. Win32 VK numbering is used as the portable
// identity of a base key.
type Key uint32

const (
	KeyBackspace Key = 0x08
	KeyTab       Key = 0x09
	KeyEnter     Key = 0x0D
	KeyEscape    Key = 0x1B
	KeySpace     Key = 0x20
	KeyPageUp    Key = 0x21
	KeyPageDown  Key = 0x22
	KeyEnd       Key = 0x23
	KeyHome      Key = 0x24
	KeyLeft      Key = 0x25
	KeyUp        Key = 0x26
	KeyRight     Key = 0x27
	KeyDown      Key = 0x28
	KeyInsert    Key = 0x2D
	KeyDelete    Key = 0x2E
	KeyF1        Key = 0x70
	KeyF24       Key = 0x87
	KeyBackquote Key = 0xC0
)

// Combo is a key combination: one base key plus at least one modifier.
// Combo is comparable and is used as a map key for registrations.
type Combo struct {
	Mods Modifier
	Key  Key
}

var modifierByName = map[string]Modifier{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"SHIFT":   ModShift,
	"ALT":     ModAlt,
	"WIN":     ModWin,
	"SUPER":   ModWin,
	"CMD":     ModWin,
}

var keyByName = map[string]Key{
	"SPACE":     KeySpace,
	"TAB":       KeyTab,
	"ENTER":     KeyEnter,
	"RETURN":    KeyEnter,
	"ESC":       KeyEscape,
	"ESCAPE":    KeyEscape,
	"BACKSPACE": KeyBackspace,
	"DELETE":    KeyDelete,
	"DEL":       KeyDelete,
	"INSERT":    KeyInsert,
	"INS":       KeyInsert,
	"HOME":      KeyHome,
	"END":       KeyEnd,
	"PAGEUP":    KeyPageUp,
	"PGUP":      KeyPageUp,
	"PAGEDOWN":  KeyPageDown,
	"PGDN":      KeyPageDown,
	"LEFT":      KeyLeft,
	"RIGHT":     KeyRight,
	"UP":        KeyUp,
	"DOWN":      KeyDown,
	"`":         KeyBackquote,
	"BACKQUOTE": KeyBackquote,
	"GRAVE":     KeyBackquote,
}

var keyLabels = map[Key]string{
	KeySpace:     "Space",
	KeyTab:       "Tab",
	KeyEnter:     "Enter",
	KeyEscape:    "Esc",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyBackquote: "`",
}

// ParseCombo parses a combination like "Ctrl+Shift+F12". Tokens are
// case-insensitive and duplicate modifiers are collapsed.
func ParseCombo(input string) (Combo, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Combo{}, invalidKey("hotkey input is empty", raw)
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Combo{}, invalidKey("hotkey must include modifiers and key", raw)
	}

	var mods Modifier
	for _, token := range parts[:len(parts)-1] {
		mod, ok := modifierByName[strings.ToUpper(strings.TrimSpace(token))]
		if !ok {
			return Combo{}, invalidKey(fmt.Sprintf("unknown modifier %q", token), raw)
		}
		mods |= mod
	}

	key, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Combo{}, invalidKey(err.Error(), raw)
	}

	return Combo{Mods: mods, Key: key}, nil
}

// MustParseCombo is ParseCombo for literals known to be valid.
func MustParseCombo(input string) Combo {
	c, err := ParseCombo(input)
	if err != nil {
		panic(err)
	}
	return c
}

func parseKey(raw string) (Key, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, fmt.Errorf("missing key token")
	}

	if key, ok := keyByName[token]; ok {
		return key, nil
	}

	if len(token) == 1 {
		ch := token[0]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			return Key(ch), nil
		}
	}

	if token[0] == 'F' && len(token) > 1 {
		if n, err := strconv.Atoi(token[1:]); err == nil && n >= 1 && n <= 24 {
			return KeyF1 + Key(n-1), nil
		}
	}

	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid hex key %q", raw)
		}
		if value == 0 {
			return 0, fmt.Errorf("key code 0x00 is not a valid virtual key")
		}
		return Key(value), nil
	}

	return 0, fmt.Errorf("unknown key %q", raw)
}

func invalidKey(msg, input string) *errors.HotsnipError {
	return errors.NewParseError(errors.ErrCodeInvalidKey, msg, nil).WithContext("input", input)
}

// Validate reports whether the combination can be handed to a backend.
func (c Combo) Validate() error {
	if c.Mods == 0 {
		return errors.NewConflictError(errors.ErrCodeUnsupportedKey,
			"at least one modifier is required: "+c.String(), nil)
	}
	if c.Mods&^modAll != 0 {
		return errors.NewConflictError(errors.ErrCodeUnsupportedKey,
			fmt.Sprintf("unsupported modifier bits 0x%X", uint32(c.Mods&^modAll)), nil)
	}
	if c.Key == 0 || c.Key > 0xFE {
		return errors.NewConflictError(errors.ErrCodeUnsupportedKey,
			fmt.Sprintf("unsupported key code 0x%02X", uint32(c.Key)), nil)
	}
	return nil
}

// String returns the canonical form, modifiers in the order Ctrl, Alt,
// Shift, Win.
func (c Combo) String() string {
	var parts []string
	if c.Mods&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if c.Mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if c.Mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if c.Mods&ModWin != 0 {
		parts = append(parts, "Win")
	}
	return strings.Join(append(parts, c.Key.String()), "+")
}

// String returns the label ParseCombo accepts for the key.
func (k Key) String() string {
	if label, ok := keyLabels[k]; ok {
		return label
	}
	if (k >= 'A' && k <= 'Z') || (k >= '0' && k <= '9') {
		return string(rune(k))
	}
	if k >= KeyF1 && k <= KeyF24 {
		return fmt.Sprintf("F%d", k-KeyF1+1)
	}
	return fmt.Sprintf("0x%02X", uint32(k))
}

// MarshalText lets combos appear as map keys and values in JSON and YAML output.
func (c Combo) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Less orders combos by key, then modifiers.
func (c Combo) Less(o Combo) bool {
	if c.Key != o.Key {
		return c.Key < o.Key
	}
	return c.Mods < o.Mods
}
