package multipart

import (
	"io"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// panelBehavior – плита толщиной 4 пикселя у грани из свойства face
type panelBehavior struct {
	BaseBehavior
	opacity int
	light   int
	convert int
}

func (b *panelBehavior) SlotFor(s block.State) *slot.Slot {
	return slot.FaceSlot(panelFace(s))
}

func (b *panelBehavior) Shape(p *PartInfo) physics.Shape {
	f := panelFace(p.State())
	lo := [3]float64{0, 0, 0}
	hi := [3]float64{16, 16, 16}
	if f.Positive() {
		lo[f.Axis()] = 12
	} else {
		hi[f.Axis()] = 4
	}
	return physics.Pixels(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

func (b *panelBehavior) LightOpacity(*PartInfo, *Query) int { return b.opacity }
func (b *panelBehavior) LightValue(*PartInfo, *Query) int   { return b.light }

func (b *panelBehavior) CreateTile(World, vec.Vec3, block.State) Tile {
	return &counterTile{}
}

func (b *panelBehavior) ConvertTile(companion any) Tile {
	b.convert++
	if t, ok := companion.(*counterTile); ok {
		return t
	}
	return &counterTile{}
}

func panelFace(s block.State) vec.Face {
	raw, _ := s.Get("face")
	f, ok := vec.ParseFace(raw)
	if !ok {
		return vec.FaceDown
	}
	return f
}

func panel(face vec.Face) block.State {
	return block.NewState("panel", map[string]string{"face": face.String()})
}

// counterTile считает тики
type counterTile struct {
	ticks int
}

func (t *counterTile) Tick(*PartInfo) { t.ticks++ }

func (t *counterTile) Snapshot() map[string]string {
	return map[string]string{"ticks": strconv.Itoa(t.ticks)}
}

func (t *counterTile) Restore(data map[string]string) error {
	n, err := strconv.Atoi(data["ticks"])
	if err != nil {
		return err
	}
	t.ticks = n
	return nil
}

// shapeBehavior занимает заданный слот заданной формой
type shapeBehavior struct {
	BaseBehavior
	shape  physics.Shape
	claims []*slot.Slot
	veto   bool
}

func (b *shapeBehavior) Shape(*PartInfo) physics.Shape                { return b.shape }
func (b *shapeBehavior) ClaimedSlots(*PartInfo) []*slot.Slot          { return b.claims }
func (b *shapeBehavior) CanCoexist(_ *PartInfo, other *PartInfo) bool { return !b.veto }

// recursiveBehavior запрашивает свою же клетку через менеджер
type recursiveBehavior struct {
	BaseBehavior
	mgr *Manager
}

func (b *recursiveBehavior) LightOpacity(p *PartInfo, q *Query) int {
	return b.mgr.LightOpacity(p.World(), p.Pos(), q) + 1
}

func (b *recursiveBehavior) LightValue(p *PartInfo, q *Query) int {
	return b.mgr.LightValue(p.World(), p.Pos(), q) + 3
}

// chainBehavior запрашивает соседнюю клетку сверху, пока та существует
type chainBehavior struct {
	BaseBehavior
	mgr *Manager
}

func (b *chainBehavior) LightValue(p *PartInfo, q *Query) int {
	return b.mgr.LightValue(p.World(), p.Pos().Offset(vec.FaceUp), q) + 1
}

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("multipart", io.Discard, logging.ERROR)
}

type fixture struct {
	mgr     *Manager
	types   *TypeRegistry
	world   *world.World
	panel   *panelBehavior
	changes []vec.Vec3
}

func newFixture(remote bool) *fixture {
	f := &fixture{
		types: NewTypeRegistry(),
		world: world.NewWorld(remote),
		panel: &panelBehavior{BaseBehavior: BaseBehavior{BehaviorName: "panel"}},
	}
	f.types.Register(f.panel)

	opts := DefaultOptions()
	opts.Types = f.types
	opts.Logger = quietLogger()
	opts.Metrics = NewMetrics(prometheus.NewRegistry())
	opts.Notifier = NotifierFunc(func(_ World, pos vec.Vec3) {
		f.changes = append(f.changes, pos)
	})
	f.mgr = NewManager(opts)
	return f
}

// placePlain ставит панель обычной клеткой с тайлом-компаньоном
func (f *fixture) placePlain(pos vec.Vec3, face vec.Face) *counterTile {
	tile := &counterTile{}
	f.world.SetState(pos, panel(face))
	f.world.SetCompanion(pos, tile)
	return tile
}

// signalBehavior отдаёт заранее заданные сигналы и форму грани
type signalBehavior struct {
	BaseBehavior
	box        physics.Shape
	power      int
	comparator int
	enchant    float64
	face       physics.FaceShape
}

func (b *signalBehavior) Shape(*PartInfo) physics.Shape                   { return b.box }
func (b *signalBehavior) WeakPower(*PartInfo, vec.Face) int               { return b.power }
func (b *signalBehavior) StrongPower(*PartInfo, vec.Face) int             { return b.power }
func (b *signalBehavior) ComparatorOverride(*PartInfo) int                { return b.comparator }
func (b *signalBehavior) EnchantPowerBonus(*PartInfo) float64             { return b.enchant }
func (b *signalBehavior) FaceShape(*PartInfo, vec.Face) physics.FaceShape { return b.face }

// addSignal регистрирует signalBehavior под именем name и кладёт его в слот s клетки pos
func (f *fixture) addSignal(t *testing.T, pos vec.Vec3, name string, s *slot.Slot, b *signalBehavior) {
	t.Helper()
	b.BaseBehavior = BaseBehavior{BehaviorName: name, OwnSlot: s}
	f.types.Register(b)
	state := block.NewState(name, nil)
	if f.world.State(pos).IsAir() {
		require.NoError(t, f.mgr.PlacePart(f.world, pos, s, state))
		return
	}
	require.NoError(t, f.mgr.TryAddPart(f.world, pos, s, state, false))
}
