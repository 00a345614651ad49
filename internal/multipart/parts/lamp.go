package parts

import (
	"fmt"
	"strconv"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

const LampType = "lamp"

const (
	lampLight   = 15
	lampOpacity = 10
)

// LampState создаёт состояние лампы
func LampState(lit bool) block.State {
	return block.NewState(LampType, map[string]string{"lit": strconv.FormatBool(lit)})
}

// LampTile считает тики, которые лампа провела зажжённой
type LampTile struct {
	LitTicks int
}

func (t *LampTile) Tick(p *multipart.PartInfo) {
	if p.State().Bool("lit") {
		t.LitTicks++
	}
}

func (t *LampTile) Snapshot() map[string]string {
	return map[string]string{"lit_ticks": strconv.Itoa(t.LitTicks)}
}

func (t *LampTile) Restore(data map[string]string) error {
	raw, ok := data["lit_ticks"]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("lit_ticks: %w", err)
	}
	t.LitTicks = n
	return nil
}

// LampBehavior светит из центра клетки. Загорается от сигнала соседей.
type LampBehavior struct {
	multipart.BaseBehavior
}

// NewLampBehavior создаёт поведение лампы
func NewLampBehavior() *LampBehavior {
	return &LampBehavior{BaseBehavior: multipart.BaseBehavior{
		BehaviorName: LampType,
		OwnSlot:      slot.Center,
	}}
}

func (b *LampBehavior) CreateTile(multipart.World, vec.Vec3, block.State) multipart.Tile {
	return &LampTile{}
}

func (b *LampBehavior) ConvertTile(companion any) multipart.Tile {
	if t, ok := companion.(*LampTile); ok {
		return t
	}
	return &LampTile{}
}

func (b *LampBehavior) Shape(*multipart.PartInfo) physics.Shape {
	return physics.Pixels(5, 5, 5, 11, 11, 11)
}

func (b *LampBehavior) LightValue(p *multipart.PartInfo, _ *multipart.Query) int {
	if p.State().Bool("lit") {
		return lampLight
	}
	return 0
}

func (b *LampBehavior) LightOpacity(*multipart.PartInfo, *multipart.Query) int {
	return lampOpacity
}

func (b *LampBehavior) Hardness(*multipart.PartInfo) float64 { return 0.3 }

func (b *LampBehavior) CanRenderInLayer(_ *multipart.PartInfo, layer multipart.RenderLayer) bool {
	return layer == multipart.LayerSolid || layer == multipart.LayerCutout
}

func (b *LampBehavior) ComparatorOverride(p *multipart.PartInfo) int {
	if p.State().Bool("lit") {
		return lampLight
	}
	return 0
}

// UpdatePostPlacement зажигает лампу, пока соседние клетки подают сигнал
func (b *LampBehavior) UpdatePostPlacement(p *multipart.PartInfo, _ vec.Face, _ block.State) block.State {
	return LampState(p.ReceivedPower() > 0)
}
