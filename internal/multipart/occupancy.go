package multipart

import (
	"fmt"

	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
)

// footprint: слоты и объём, которые часть занимает в клетке
type footprint struct {
	slots []*slot.Slot
	shape physics.Shape
}

func (f footprint) overlaps(other footprint) bool {
	for _, a := range f.slots {
		for _, b := range other.slots {
			if a == b {
				return true
			}
		}
	}
	return f.shape.Intersects(other.shape)
}

// checkOccupancy проверяет кандидата против каждой существующей части.
// Проверка симметрична, поэтому результат не зависит от порядка добавления.
func checkOccupancy(existing []*PartInfo, candidate *PartInfo) error {
	cf := candidate.occlusion()
	for _, p := range existing {
		if p.slot == candidate.slot {
			return fmt.Errorf("слот %s: %w", p.slot, ErrSlotOccupied)
		}
		if cf.overlaps(p.occlusion()) {
			return fmt.Errorf("%s в слоте %s пересекается с %s в слоте %s: %w",
				candidate.state, candidate.slot, p.state, p.slot, ErrOccupancyConflict)
		}
		if !p.behavior.CanCoexist(p, candidate) || !candidate.behavior.CanCoexist(candidate, p) {
			return fmt.Errorf("%s и %s: %w", p.state, candidate.state, ErrCoexistenceVeto)
		}
	}
	return nil
}
