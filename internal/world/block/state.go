package block

import (
	"fmt"
	"sort"
	"strings"
)

// State хранит неизменяемое описание содержимого клетки: тип и набор свойств.
// Свойства хранятся в канонической строке, поэтому State сравнимо через ==
// и может служить ключом карты. Любое "изменение" возвращает новое значение.
type State struct {
	typ   string
	props string
}

// Air – пустая клетка
var Air = State{typ: "air"}

// ContainerType помечает клетку, занятую мультипарт-контейнером
const ContainerType = "multipart:container"

// NewState создаёт состояние с указанными свойствами
func NewState(typ string, props map[string]string) State {
	return State{typ: typ, props: encodeProps(props)}
}

// Type возвращает тип состояния
func (s State) Type() string {
	return s.typ
}

// IsAir сообщает, что клетка пуста
func (s State) IsAir() bool {
	return s.typ == "" || s.typ == Air.typ
}

// Get возвращает значение свойства
func (s State) Get(key string) (string, bool) {
	for _, kv := range splitProps(s.props) {
		k, v, _ := strings.Cut(kv, "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}

// Bool возвращает свойство как логическое значение (по умолчанию false)
func (s State) Bool(key string) bool {
	v, _ := s.Get(key)
	return v == "true"
}

// With возвращает копию состояния с заменённым свойством
func (s State) With(key, value string) State {
	props := s.Props()
	props[key] = value
	return State{typ: s.typ, props: encodeProps(props)}
}

// Props возвращает копию свойств
func (s State) Props() map[string]string {
	out := make(map[string]string)
	for _, kv := range splitProps(s.props) {
		k, v, _ := strings.Cut(kv, "=")
		out[k] = v
	}
	return out
}

// String возвращает запись вида type[k=v,k2=v2]
func (s State) String() string {
	if s.props == "" {
		return s.typ
	}
	return s.typ + "[" + s.props + "]"
}

// MarshalText позволяет сериализовать состояние как строку
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает состояние из строки
func (s *State) UnmarshalText(data []byte) error {
	parsed, err := ParseState(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState разбирает запись вида type[k=v,k2=v2]
func ParseState(raw string) (State, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return State{}, fmt.Errorf("пустое описание состояния")
	}
	typ, rest, hasProps := strings.Cut(raw, "[")
	if !hasProps {
		return State{typ: typ}, nil
	}
	if !strings.HasSuffix(rest, "]") {
		return State{}, fmt.Errorf("незакрытый список свойств: %q", raw)
	}
	rest = strings.TrimSuffix(rest, "]")
	props := make(map[string]string)
	for _, kv := range splitProps(rest) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return State{}, fmt.Errorf("неверное свойство %q в %q", kv, raw)
		}
		props[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return NewState(typ, props), nil
}

func encodeProps(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + props[k]
	}
	return strings.Join(pairs, ",")
}

func splitProps(props string) []string {
	if props == "" {
		return nil
	}
	return strings.Split(props, ",")
}
