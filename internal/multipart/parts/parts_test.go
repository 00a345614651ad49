package parts

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

func newManager() *multipart.Manager {
	opts := multipart.DefaultOptions()
	opts.Logger = logging.NewWriterLogger("parts", io.Discard, logging.ERROR)
	return multipart.NewManager(opts)
}

func TestPartsRegistered(t *testing.T) {
	for _, name := range []string{CoverType, LampType, LeverType} {
		_, ok := multipart.Types.Get(name)
		assert.True(t, ok, "тип %s должен быть зарегистрирован", name)
	}
}

func TestSixCoversAndLamp(t *testing.T) {
	mgr := newManager()
	w := world.NewWorld(false)
	pos := vec.Vec3{X: 2, Y: 2, Z: 2}

	require.NoError(t, mgr.PlacePart(w, pos, slot.Down, CoverState(vec.FaceDown, "stone")))
	for _, f := range vec.Faces[1:] {
		err := mgr.TryAddPart(w, pos, slot.FaceSlot(f), CoverState(f, "glass"), false)
		require.NoError(t, err, "облицовка %s", f)
	}
	require.NoError(t, mgr.TryAddPart(w, pos, slot.Center, LampState(true), false))

	c, ok := mgr.GetContainer(w, pos)
	require.True(t, ok)
	assert.Len(t, c.Parts(), 7)
	assert.Equal(t, multipart.MaxLightOpacity, multipart.LightOpacity(c, nil), "250 + 10 упирается в предел")
	assert.Equal(t, 15, mgr.LightValue(w, pos, nil))
	assert.Equal(t, physics.FaceShapeSolid, multipart.FaceShape(c, vec.FaceUp))
	assert.True(t, multipart.HasFlag(c, multipart.FlagCreatureSpawn))
	assert.Len(t, multipart.PartsInLayer(c, multipart.LayerTranslucent), 5)
	assert.True(t, w.State(pos).Bool("ticking"), "лампе нужен тик")

	// Рычаг не помещается в слот, занятый облицовкой
	assert.False(t, mgr.AddPart(w, pos, slot.Down, LeverState(vec.FaceDown, false), true))
}

func TestLeverPowerAndToggle(t *testing.T) {
	mgr := newManager()
	w := world.NewWorld(false)
	pos := vec.Vec3{}

	require.NoError(t, mgr.PlacePart(w, pos, slot.Down, LeverState(vec.FaceDown, false)))
	require.NoError(t, mgr.TryAddPart(w, pos, slot.Up, CoverState(vec.FaceUp, "stone"), false))
	c, _ := mgr.GetContainer(w, pos)
	assert.Zero(t, multipart.WeakPower(c, vec.FaceUp))

	lever, ok := c.Get(slot.Down)
	require.True(t, ok)
	require.NoError(t, Toggle(lever))

	assert.Equal(t, leverPower, multipart.WeakPower(c, vec.FaceUp), "рычаг в нижнем слоте виден снизу")
	assert.Equal(t, leverPower, multipart.StrongPower(c, vec.FaceUp), "сильный сигнал уходит в опору")
	assert.Zero(t, multipart.StrongPower(c, vec.FaceDown))
	assert.True(t, multipart.CanConnectRedstone(c, vec.FaceUp))

	tile, ok := mgr.GetPartTile(w, pos, slot.Down)
	require.True(t, ok)
	assert.Equal(t, 1, tile.(*LeverTile).Toggles)
	assert.Equal(t, map[string]string{"toggles": "1"}, tile.Snapshot())
}

func TestLeverFallsWithoutSupport(t *testing.T) {
	mgr := newManager()
	w := world.NewWorld(false)
	pos := vec.Vec3{Y: 1}

	require.NoError(t, mgr.PlacePart(w, pos, slot.Down, LeverState(vec.FaceDown, true)))
	require.NoError(t, mgr.TryAddPart(w, pos, slot.Center, LampState(false), false))

	mgr.UpdatePostPlacement(w, pos, vec.FaceDown, block.Air)
	_, ok := mgr.GetInfo(w, pos, slot.Down)
	assert.False(t, ok, "рычаг без опоры отваливается")
	_, ok = mgr.GetInfo(w, pos, slot.Center)
	assert.True(t, ok)
}

func TestLampFollowsNeighborLever(t *testing.T) {
	mgr := newManager()
	w := world.NewWorld(false)
	pos := vec.Vec3{}
	require.NoError(t, mgr.PlacePart(w, pos, slot.Center, LampState(false)))
	assert.Equal(t, LampState(false), w.State(pos), "лампа в своём слоте – обычная клетка")

	mgr.UpdatePostPlacement(w, pos, vec.FaceEast, LeverState(vec.FaceDown, true))
	assert.Equal(t, LampState(false), w.State(pos), "лампа смотрит на мощность соседей, а не на их тип")

	leverPos := pos.Offset(vec.FaceEast)
	require.NoError(t, mgr.PlacePart(w, leverPos, slot.West, LeverState(vec.FaceWest, true)))
	mgr.UpdatePostPlacement(w, pos, vec.FaceEast, w.State(leverPos))
	assert.Equal(t, LampState(true), w.State(pos))
	assert.Equal(t, 15, mgr.LightValue(w, pos, nil))

	mgr.Tick(w, pos)
	tile, ok := mgr.GetPartTile(w, pos, slot.Center)
	require.True(t, ok)
	assert.Equal(t, 1, tile.(*LampTile).LitTicks)
}

func TestBedrockCover(t *testing.T) {
	mgr := newManager()
	w := world.NewWorld(false)
	pos := vec.Vec3{}
	require.NoError(t, mgr.PlacePart(w, pos, slot.Up, CoverState(vec.FaceUp, "bedrock")))

	from := vec.Vec3Float{X: 0.5, Y: 2, Z: 0.5}
	to := vec.Vec3Float{X: 0.5, Y: -1, Z: 0.5}
	assert.False(t, mgr.Break(w, pos, multipart.Actor{}, from, to))
	assert.Zero(t, mgr.PlayerRelativeHardness(w, pos, multipart.Actor{}, from, to))

	v, ok := mgr.View(w, pos)
	require.True(t, ok)
	assert.Equal(t, multipart.InfiniteResistance, multipart.ExplosionResistance(v))

	stack, ok := mgr.PickPart(w, pos, multipart.Actor{}, from, to)
	require.True(t, ok)
	assert.Equal(t, "cover:bedrock", stack.Item)
}

func TestLeverInsideContainerPowersNeighborLamp(t *testing.T) {
	mgr := newManager()
	w := world.NewWorld(false)
	w.Listen(func(ev world.Event) {
		be, ok := ev.(world.BlockEvent)
		if !ok {
			return
		}
		for _, f := range vec.Faces {
			mgr.UpdatePostPlacement(w, be.Position.Offset(f), f.Opposite(), be.New)
		}
	})

	lampPos := vec.Vec3{}
	leverPos := lampPos.Offset(vec.FaceEast)
	require.NoError(t, mgr.PlacePart(w, lampPos, slot.Center, LampState(false)))
	require.NoError(t, mgr.PlacePart(w, leverPos, slot.West, LeverState(vec.FaceWest, false)))
	require.NoError(t, mgr.TryAddPart(w, leverPos, slot.Up, CoverState(vec.FaceUp, "stone"), false))
	assert.Equal(t, block.ContainerType, w.State(leverPos).Type())

	p, ok := mgr.GetInfo(w, leverPos, slot.West)
	require.True(t, ok)
	require.NoError(t, Toggle(p))
	assert.Equal(t, LampState(true), mgr.GetPartState(w, lampPos, slot.Center),
		"смена части без смены состояния клетки всё равно доходит до соседей")

	p, _ = mgr.GetInfo(w, leverPos, slot.West)
	require.NoError(t, Toggle(p))
	assert.Equal(t, LampState(false), mgr.GetPartState(w, lampPos, slot.Center))
}
