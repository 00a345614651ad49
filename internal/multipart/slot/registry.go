package slot

import (
	"errors"
	"fmt"
	"math"
)

// ID кодирует слот компактно для сетевого кодирования и попаданий луча
type ID uint16

var (
	// ErrFrozen возвращается при регистрации после заморозки реестра
	ErrFrozen = errors.New("реестр слотов заморожен")
	// ErrDuplicate возвращается при повторной регистрации имени или слота
	ErrDuplicate = errors.New("слот уже зарегистрирован")
)

// Registry сопоставляет слоты и их идентификаторы. Заполняется при старте
// процесса, после Freeze только читается, поэтому не синхронизируется.
type Registry struct {
	byID   []*Slot
	ids    map[*Slot]ID
	byName map[string]*Slot
	frozen bool
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		ids:    make(map[*Slot]ID),
		byName: make(map[string]*Slot),
	}
}

// Register присваивает слоту следующий свободный идентификатор
func (r *Registry) Register(s *Slot) (ID, error) {
	if s == nil {
		return 0, fmt.Errorf("регистрация пустого слота")
	}
	if r.frozen {
		return 0, fmt.Errorf("слот %s: %w", s.name, ErrFrozen)
	}
	if _, exists := r.ids[s]; exists {
		return 0, fmt.Errorf("слот %s: %w", s.name, ErrDuplicate)
	}
	if _, exists := r.byName[s.name]; exists {
		return 0, fmt.Errorf("имя %s: %w", s.name, ErrDuplicate)
	}
	if len(r.byID) > math.MaxUint16 {
		return 0, fmt.Errorf("превышено число слотов (%d)", len(r.byID))
	}

	id := ID(len(r.byID))
	r.byID = append(r.byID, s)
	r.ids[s] = id
	r.byName[s.name] = s
	return id, nil
}

// MustRegister регистрирует слот или паникует. Для вызова из init().
func (r *Registry) MustRegister(s *Slot) ID {
	id, err := r.Register(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Freeze запрещает дальнейшую регистрацию
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen сообщает, заморожен ли реестр
func (r *Registry) Frozen() bool {
	return r.frozen
}

// ID возвращает идентификатор слота
func (r *Registry) ID(s *Slot) (ID, bool) {
	id, ok := r.ids[s]
	return id, ok
}

// ByID возвращает слот по идентификатору
func (r *Registry) ByID(id ID) (*Slot, bool) {
	if int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// ByName возвращает слот по имени
func (r *Registry) ByName(name string) (*Slot, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Slots возвращает все слоты в порядке идентификаторов
func (r *Registry) Slots() []*Slot {
	out := make([]*Slot, len(r.byID))
	copy(out, r.byID)
	return out
}

// Less упорядочивает слоты по идентификатору; незарегистрированные идут последними по имени
func (r *Registry) Less(a, b *Slot) bool {
	ia, okA := r.ids[a]
	ib, okB := r.ids[b]
	switch {
	case okA && okB:
		return ia < ib
	case okA != okB:
		return okA
	default:
		return a.name < b.name
	}
}

// Default содержит стандартные слоты
var Default = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range faceSlots {
		r.MustRegister(s)
	}
	r.MustRegister(Center)
	for _, e := range edgeSlots {
		r.MustRegister(e)
	}
	return r
}

// Register добавляет пользовательский слот в реестр процесса
func Register(s *Slot) (ID, error) {
	return Default.Register(s)
}
