package multipart

import (
	"errors"
	"fmt"

	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// Options задаёт зависимости и политику менеджера
type Options struct {
	Types    *TypeRegistry
	Slots    *slot.Registry
	Notifier Notifier
	Metrics  *Metrics
	Logger   *logging.Logger

	// CollapseEmpty превращает опустевший контейнер в воздух
	CollapseEmpty bool
	MaxQueryDepth int
}

// DefaultOptions возвращает настройки с реестрами процесса
func DefaultOptions() Options {
	return Options{
		Types:         Types,
		Slots:         slot.Default,
		CollapseEmpty: true,
		MaxQueryDepth: DefaultMaxQueryDepth,
	}
}

// Manager служит точкой входа для размещения частей и запросов к клеткам мира
type Manager struct {
	types         *TypeRegistry
	slots         *slot.Registry
	notifier      Notifier
	metrics       *Metrics
	log           *logging.Logger
	collapseEmpty bool
	maxQueryDepth int
}

// NewManager создаёт менеджер. Пустые поля Options заменяются значениями по умолчанию.
func NewManager(opts Options) *Manager {
	m := &Manager{
		types:         opts.Types,
		slots:         opts.Slots,
		notifier:      opts.Notifier,
		metrics:       opts.Metrics,
		log:           opts.Logger,
		collapseEmpty: opts.CollapseEmpty,
		maxQueryDepth: opts.MaxQueryDepth,
	}
	if m.types == nil {
		m.types = Types
	}
	if m.slots == nil {
		m.slots = slot.Default
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.log == nil {
		m.log = logging.GetMultipartLogger()
	}
	if m.maxQueryDepth <= 0 {
		m.maxQueryDepth = DefaultMaxQueryDepth
	}
	return m
}

// Types возвращает реестр типов частей
func (m *Manager) Types() *TypeRegistry { return m.types }

// Slots возвращает реестр слотов
func (m *Manager) Slots() *slot.Registry { return m.slots }

// NewQuery создаёт контекст запроса с глубиной менеджера
func (m *Manager) NewQuery() *Query { return NewQuery(m.maxQueryDepth) }

// GetContainer возвращает установленный в клетке контейнер
func (m *Manager) GetContainer(w World, pos vec.Vec3) (*TileContainer, bool) {
	if w.State(pos).Type() != block.ContainerType {
		return nil, false
	}
	c, ok := w.Companion(pos).(*TileContainer)
	return c, ok
}

// View возвращает клетку как контейнер: установленный контейнер или
// вид обычной клетки с поведением части
func (m *Manager) View(w World, pos vec.Vec3) (Container, bool) {
	if c, ok := m.GetContainer(w, pos); ok {
		return c, true
	}
	state := w.State(pos)
	beh, ok := m.types.Resolve(state)
	if !ok {
		return nil, false
	}
	v, ok := m.newImplicitView(w, pos, state, beh)
	if !ok {
		return nil, false
	}
	return v, true
}

// GetOrConvertContainer возвращает установленный контейнер либо отсоединённый
// контейнер с единственной частью обычной клетки. Мир не изменяется.
func (m *Manager) GetOrConvertContainer(w World, pos vec.Vec3) (*TileContainer, error) {
	if c, ok := m.GetContainer(w, pos); ok {
		return c, nil
	}

	state := w.State(pos)
	beh, ok := m.types.Resolve(state)
	if !ok {
		return nil, fmt.Errorf("клетка %s (%s): %w", pos, state, ErrUnresolvableState)
	}
	s := beh.SlotFor(state)
	id, ok := m.slots.ID(s)
	if s == nil || !ok {
		return nil, fmt.Errorf("часть %s без слота: %w", state, ErrUnknownSlot)
	}

	c := newTileContainer(m, w, pos, true)
	c.insert(&PartInfo{
		world:    w,
		pos:      pos,
		slot:     s,
		slotID:   id,
		state:    state,
		behavior: beh,
		tile:     beh.ConvertTile(w.Companion(pos)),
	})
	return c, nil
}

// AddPart добавляет часть в клетку. При simulate или на неавторитетной
// стороне только проверяет возможность. Ожидаемые отказы дают false.
func (m *Manager) AddPart(w World, pos vec.Vec3, s *slot.Slot, state block.State, simulate bool) bool {
	ok, _ := m.addPart(w, pos, s, state, simulate)
	return ok
}

// TryAddPart работает как AddPart, но возвращает причину отказа
func (m *Manager) TryAddPart(w World, pos vec.Vec3, s *slot.Slot, state block.State, simulate bool) error {
	_, err := m.addPart(w, pos, s, state, simulate)
	return err
}

func (m *Manager) addPart(w World, pos vec.Vec3, s *slot.Slot, state block.State, simulate bool) (bool, error) {
	err := m.place(w, pos, s, state, simulate)
	if err != nil {
		m.log.Debug("Размещение %s в слот %s клетки %s отклонено: %v", state, s, pos, err)
		m.metrics.rejected(err)
		return false, err
	}
	m.metrics.placed(simulate || w.IsRemote())
	return true, nil
}

func (m *Manager) place(w World, pos vec.Vec3, s *slot.Slot, state block.State, simulate bool) error {
	if _, ok := m.slots.ID(s); !ok {
		return fmt.Errorf("слот %s: %w", s, ErrUnknownSlot)
	}
	beh, ok := m.types.Resolve(state)
	if !ok {
		return fmt.Errorf("%s: %w", state, ErrUnresolvableState)
	}
	tile := beh.CreateTile(w, pos, state)

	c, err := m.GetOrConvertContainer(w, pos)
	if err != nil {
		return err
	}
	if c.Len() == 0 {
		return fmt.Errorf("пустой контейнер в %s: %w", pos, ErrPlacementRejected)
	}
	if _, err := c.candidate(s, state, tile); err != nil {
		return err
	}
	if simulate || w.IsRemote() {
		return nil
	}
	return c.Add(s, state, tile)
}

// PlacePart ставит часть в клетку. В воздух часть встаёт обычной клеткой,
// если её собственный слот совпадает с запрошенным, иначе контейнером из
// одной части. Пустой контейнер, оставленный при CollapseEmpty=false,
// заполняется как воздух. В занятую клетку – через AddPart.
func (m *Manager) PlacePart(w World, pos vec.Vec3, s *slot.Slot, state block.State) error {
	empty, ok := m.GetContainer(w, pos)
	if ok && empty.Len() > 0 {
		empty = nil
	}
	if empty == nil && !w.State(pos).IsAir() {
		_, err := m.addPart(w, pos, s, state, false)
		return err
	}
	if w.IsRemote() {
		return ErrRemoteWorld
	}
	beh, ok := m.types.Resolve(state)
	if !ok {
		return fmt.Errorf("%s: %w", state, ErrUnresolvableState)
	}
	if _, ok := m.slots.ID(s); !ok {
		return fmt.Errorf("слот %s: %w", s, ErrUnknownSlot)
	}
	tile := beh.CreateTile(w, pos, state)

	if empty == nil && beh.SlotFor(state) == s {
		w.SetState(pos, state)
		w.SetCompanion(pos, tile)
		m.metrics.placed(false)
		m.notifier.PartsChanged(w, pos)
		return nil
	}

	c := empty
	if c == nil {
		c = newTileContainer(m, w, pos, true)
	}
	if err := c.Add(s, state, tile); err != nil {
		m.metrics.rejected(err)
		return err
	}
	m.metrics.placed(false)
	return nil
}

// GetInfo возвращает часть в слоте клетки
func (m *Manager) GetInfo(w World, pos vec.Vec3, s *slot.Slot) (*PartInfo, bool) {
	c, ok := m.View(w, pos)
	if !ok {
		return nil, false
	}
	return c.Get(s)
}

// GetPartBehavior возвращает поведение части в слоте. Обычная клетка с
// частью отвечает только за свой слот; клетка, которую нельзя представить
// контейнером, отдаёт поведение своего состояния, если оно есть.
func (m *Manager) GetPartBehavior(w World, pos vec.Vec3, s *slot.Slot) (Behavior, bool) {
	c, ok := m.View(w, pos)
	if !ok {
		return m.types.Resolve(w.State(pos))
	}
	p, ok := c.Get(s)
	if !ok {
		return nil, false
	}
	return p.Behavior(), true
}

// GetPartTile возвращает тайл части в слоте
func (m *Manager) GetPartTile(w World, pos vec.Vec3, s *slot.Slot) (Tile, bool) {
	p, ok := m.GetInfo(w, pos, s)
	if !ok {
		return nil, false
	}
	t := p.Tile()
	return t, t != nil
}

// GetPartState возвращает состояние части в слоте; Air, если слот пуст.
// Для клетки без частей возвращается её собственное состояние.
func (m *Manager) GetPartState(w World, pos vec.Vec3, s *slot.Slot) block.State {
	c, ok := m.View(w, pos)
	if !ok {
		return w.State(pos)
	}
	p, ok := c.Get(s)
	if !ok {
		return block.Air
	}
	return p.State()
}

// RemovePart удаляет часть из слота клетки
func (m *Manager) RemovePart(w World, pos vec.Vec3, s *slot.Slot) bool {
	c, ok := m.View(w, pos)
	if !ok {
		return false
	}
	if err := c.Remove(s); err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			m.log.Warn("Не удалось удалить часть %s из %s: %v", s, pos, err)
		}
		return false
	}
	return true
}

// LightValue возвращает светимость клетки
func (m *Manager) LightValue(w World, pos vec.Vec3, q *Query) int {
	c, ok := m.View(w, pos)
	if !ok {
		return 0
	}
	if q == nil {
		q = m.NewQuery()
		defer func() { m.metrics.refused("light_value", q.Refused()) }()
	}
	return LightValue(c, q)
}

// LightOpacity возвращает непрозрачность клетки
func (m *Manager) LightOpacity(w World, pos vec.Vec3, q *Query) int {
	c, ok := m.View(w, pos)
	if !ok {
		return 0
	}
	if q == nil {
		q = m.NewQuery()
		defer func() { m.metrics.refused("light_opacity", q.Refused()) }()
	}
	return LightOpacity(c, q)
}
