package scanner

import (
	"context"

	"github.com/annel0/roadmap/internal/vec"
	"github.com/annel0/roadmap/internal/worldquery"
)

// isSolid запрашивает блок и применяет классификатор
func (s *Scanner) isSolid(ctx context.Context, pos vec.Vec3) (bool, error) {
	state, err := s.world.BlockAt(ctx, pos)
	if err != nil {
		return false, err
	}
	return s.classifier.IsSolid(state), nil
}

// isFloor: твёрдый блок с проходимым блоком над ним
func (s *Scanner) isFloor(ctx context.Context, pos vec.Vec3) (bool, error) {
	solid, err := s.isSolid(ctx, pos)
	if err != nil || !solid {
		return false, err
	}
	above, err := s.isSolid(ctx, pos.Up(1))
	if err != nil {
		return false, err
	}
	return !above, nil
}

// isCeiling: твёрдый блок с проходимым блоком под ним
func (s *Scanner) isCeiling(ctx context.Context, pos vec.Vec3) (bool, error) {
	solid, err := s.isSolid(ctx, pos)
	if err != nil || !solid {
		return false, err
	}
	below, err := s.isSolid(ctx, pos.Up(-1))
	if err != nil {
		return false, err
	}
	return !below, nil
}

// findFloor ищет пол сверху вниз от top до bottom включительно
func (s *Scanner) findFloor(ctx context.Context, pos vec.Vec3, top, bottom int) (vec.Vec3, worldquery.BlockState, bool, error) {
	for y := top; y >= bottom; y-- {
		candidate := pos.WithY(y)
		ok, err := s.isFloor(ctx, candidate)
		if err != nil {
			return vec.Vec3{}, worldquery.BlockState{}, false, err
		}
		if ok {
			state, err := s.world.BlockAt(ctx, candidate)
			if err != nil {
				return vec.Vec3{}, worldquery.BlockState{}, false, err
			}
			return candidate, state, true, nil
		}
	}
	return vec.Vec3{}, worldquery.BlockState{}, false, nil
}

// clearance ищет ближайший потолок над полом в пределах scanHeight.
// Возвращает ceilingY - floorY - 1 или 0, если потолка нет.
func (s *Scanner) clearance(ctx context.Context, floor vec.Vec3) (int, error) {
	for y := floor.Y + 1; y <= floor.Y+1+s.cfg.ScanHeight; y++ {
		ok, err := s.isCeiling(ctx, floor.WithY(y))
		if err != nil {
			return 0, err
		}
		if ok {
			return y - floor.Y - 1, nil
		}
	}
	return 0, nil
}
