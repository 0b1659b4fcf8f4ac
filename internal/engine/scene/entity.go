package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// EntityIndex addresses an entity in the scene arena.
type EntityIndex int

// NoParent marks a root entity.
const NoParent EntityIndex = -1

// ErrParentCycle is returned when parent references would form a loop.
var ErrParentCycle = errors.New("entity parent cycle")

// ErrNoEntity is returned for out-of-range entity indices.
var ErrNoEntity = errors.New("no such entity")

// MovementController oscillates an entity along an axis around its rest
// position. A zero axis or amplitude leaves the entity still.
type MovementController struct {
	Axis      mgl32.Vec3
	Amplitude float32
	Speed     float32 // Radians per second of the oscillation phase

	phase  float32
	origin mgl32.Vec3
	bound  bool
}

// RotationController spins an entity at a constant rate.
type RotationController struct {
	DegreesPerSecond mgl32.Vec3
}

// Entity is one placed instance of a model.
type Entity struct {
	Name     string
	Position mgl32.Vec3 // Local offset from the parent, world position for roots
	Rotation mgl32.Vec3 // Euler angles in degrees, applied X then Y then Z
	Scale    mgl32.Vec3
	Parent   EntityIndex
	Model    int

	Movement *MovementController
	Spin     *RotationController
}

// NewEntity returns a root entity of model at position with unit scale.
func NewEntity(model int, position mgl32.Vec3) Entity {
	return Entity{
		Position: position,
		Scale:    mgl32.Vec3{1, 1, 1},
		Parent:   NoParent,
		Model:    model,
	}
}

// LocalMatrix composes rotation and scale with the given world position.
func (e *Entity) LocalMatrix(worldPos mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(worldPos.X(), worldPos.Y(), worldPos.Z())
	rx := mgl32.HomogRotate3DX(mgl32.DegToRad(e.Rotation.X()))
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(e.Rotation.Y()))
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(e.Rotation.Z()))
	s := mgl32.Scale3D(e.Scale.X(), e.Scale.Y(), e.Scale.Z())
	return t.Mul4(rx).Mul4(ry).Mul4(rz).Mul4(s)
}

// update advances the controllers by dt seconds and reports whether the
// transform changed.
func (e *Entity) update(dt float32) bool {
	changed := false
	if m := e.Movement; m != nil && m.Amplitude != 0 && m.Axis.Len() > 0 {
		if !m.bound {
			m.origin = e.Position
			m.bound = true
		}
		m.phase = float32(math.Mod(float64(m.phase+m.Speed*dt), 2*math.Pi))
		offset := m.Axis.Normalize().Mul(m.Amplitude * float32(math.Sin(float64(m.phase))))
		e.Position = m.origin.Add(offset)
		changed = true
	}
	if r := e.Spin; r != nil && r.DegreesPerSecond != (mgl32.Vec3{}) {
		e.Rotation = e.Rotation.Add(r.DegreesPerSecond.Mul(dt))
		for i := 0; i < 3; i++ {
			e.Rotation[i] = float32(math.Mod(float64(e.Rotation[i]), 360))
		}
		changed = true
	}
	return changed
}

// WorldPosition returns the entity's position with all ancestor offsets added.
// It walks the parent chain at most len(Entities) steps and fails with
// ErrParentCycle if the chain does not terminate.
func (s *Scene) WorldPosition(i EntityIndex) (mgl32.Vec3, error) {
	if !s.validEntity(i) {
		return mgl32.Vec3{}, fmt.Errorf("entity %d: %w", i, ErrNoEntity)
	}
	pos := s.Entities[i].Position
	cur := s.Entities[i].Parent
	for steps := 0; cur != NoParent; steps++ {
		if steps >= len(s.Entities) {
			return mgl32.Vec3{}, fmt.Errorf("entity %d: %w", i, ErrParentCycle)
		}
		if !s.validEntity(cur) {
			return mgl32.Vec3{}, fmt.Errorf("entity %d parent %d: %w", i, cur, ErrNoEntity)
		}
		pos = pos.Add(s.Entities[cur].Position)
		cur = s.Entities[cur].Parent
	}
	return pos, nil
}

// WorldTransform returns the world matrix of a single entity.
func (s *Scene) WorldTransform(i EntityIndex) (mgl32.Mat4, error) {
	pos, err := s.WorldPosition(i)
	if err != nil {
		return mgl32.Ident4(), err
	}
	return s.Entities[i].LocalMatrix(pos), nil
}

// WorldTransforms computes every entity's world matrix in one pass. Entities
// are visited parents-before-children; a parent cycle is reported as
// ErrParentCycle naming one entity on the cycle.
func (s *Scene) WorldTransforms() ([]mgl32.Mat4, error) {
	order, err := s.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	worldPos := make([]mgl32.Vec3, len(s.Entities))
	out := make([]mgl32.Mat4, len(s.Entities))
	for _, i := range order {
		e := &s.Entities[i]
		worldPos[i] = e.Position
		if e.Parent != NoParent {
			worldPos[i] = worldPos[i].Add(worldPos[e.Parent])
		}
		out[i] = e.LocalMatrix(worldPos[i])
	}
	return out, nil
}

// TopologicalOrder returns entity indices with every parent before its children.
func (s *Scene) TopologicalOrder() ([]EntityIndex, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(s.Entities))
	order := make([]EntityIndex, 0, len(s.Entities))

	// Iterative walk up the parent chain; the chain is pushed then emitted root-first.
	var chain []EntityIndex
	for start := range s.Entities {
		if state[start] == done {
			continue
		}
		chain = chain[:0]
		cur := EntityIndex(start)
		for cur != NoParent && state[cur] != done {
			if !s.validEntity(cur) {
				return nil, fmt.Errorf("entity %d parent %d: %w", start, cur, ErrNoEntity)
			}
			if state[cur] == visiting {
				return nil, fmt.Errorf("entity %d: %w", cur, ErrParentCycle)
			}
			state[cur] = visiting
			chain = append(chain, cur)
			cur = s.Entities[cur].Parent
		}
		for k := len(chain) - 1; k >= 0; k-- {
			state[chain[k]] = done
			order = append(order, chain[k])
		}
	}
	return order, nil
}

// Descendants returns every entity whose parent chain passes through i.
// Chains that reach an out-of-range parent stop there.
func (s *Scene) Descendants(i EntityIndex) []EntityIndex {
	var out []EntityIndex
	for j := range s.Entities {
		cur := s.Entities[j].Parent
		for steps := 0; s.validEntity(cur) && steps < len(s.Entities); steps++ {
			if cur == i {
				out = append(out, EntityIndex(j))
				break
			}
			cur = s.Entities[cur].Parent
		}
	}
	return out
}

// SetParent attaches child to parent (or detaches with NoParent). It refuses
// links that would make child its own ancestor.
func (s *Scene) SetParent(child, parent EntityIndex) error {
	if !s.validEntity(child) {
		return fmt.Errorf("child %d: %w", child, ErrNoEntity)
	}
	if parent == NoParent {
		s.Entities[child].Parent = NoParent
		return nil
	}
	if !s.validEntity(parent) {
		return fmt.Errorf("parent %d: %w", parent, ErrNoEntity)
	}
	for cur, steps := parent, 0; cur != NoParent; cur, steps = s.Entities[cur].Parent, steps+1 {
		if cur == child || steps >= len(s.Entities) {
			return fmt.Errorf("parenting %d under %d: %w", child, parent, ErrParentCycle)
		}
		if !s.validEntity(cur) {
			return fmt.Errorf("parent chain of %d: %w", parent, ErrNoEntity)
		}
	}
	s.Entities[child].Parent = parent
	return nil
}

func (s *Scene) validEntity(i EntityIndex) bool {
	return i >= 0 && int(i) < len(s.Entities)
}
