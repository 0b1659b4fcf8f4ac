package batch

import (
	"errors"
	"fmt"

	"github.com/Faultbox/radiance/internal/engine/scene"
)

// ErrInconsistent is returned by Validate when the tables disagree.
var ErrInconsistent = errors.New("batch tables inconsistent")

// Batch is the CPU image of every GPU table except materials.
type Batch struct {
	Geometry  Geometry
	Instances []InstanceRecord
	Commands  []DrawCommand

	// EntityRecords maps an entity index to the instance records it owns,
	// one per mesh of its model.
	EntityRecords [][]int
}

// Build consolidates geometry and emits instance records and indirect
// commands in a single model, mesh, entity walk. Every counter advances in
// the same loop so commands always address the records written for them.
func Build(s *scene.Scene) (*Batch, error) {
	world, err := s.WorldTransforms()
	if err != nil {
		return nil, fmt.Errorf("world transforms: %w", err)
	}

	b := &Batch{
		Geometry:      ConsolidateGeometry(s.Models),
		EntityRecords: make([][]int, len(s.Entities)),
	}

	var firstIndex, baseInstance uint32
	for _, m := range s.Models {
		if m.Draws == nil {
			continue
		}
		for j, mesh := range m.Meshes {
			draw := m.Draws[j]
			b.Commands = append(b.Commands, DrawCommand{
				Count:         draw.IndexCount,
				InstanceCount: uint32(len(m.Entities)),
				FirstIndex:    firstIndex,
				BaseVertex:    draw.BaseVertex,
				BaseInstance:  baseInstance,
			})
			for _, e := range m.Entities {
				b.EntityRecords[e] = append(b.EntityRecords[e], len(b.Instances))
				b.Instances = append(b.Instances, NewInstanceRecord(world[e], mesh.MaterialID))
			}
			firstIndex += draw.IndexCount
			baseInstance += uint32(len(m.Entities))
		}
	}
	return b, nil
}

// InstanceCount returns the number of instance records.
func (b *Batch) InstanceCount() int {
	return len(b.Instances)
}

// Validate re-derives the offset invariants from the command list.
func (b *Batch) Validate() error {
	var firstIndex, baseInstance uint32
	for i, c := range b.Commands {
		if c.FirstIndex != firstIndex {
			return fmt.Errorf("command %d first index %d, expected %d: %w", i, c.FirstIndex, firstIndex, ErrInconsistent)
		}
		if c.BaseInstance != baseInstance {
			return fmt.Errorf("command %d base instance %d, expected %d: %w", i, c.BaseInstance, baseInstance, ErrInconsistent)
		}
		if c.BaseVertex < 0 || int(c.BaseVertex) > b.Geometry.VertexCount {
			return fmt.Errorf("command %d base vertex %d out of %d: %w", i, c.BaseVertex, b.Geometry.VertexCount, ErrInconsistent)
		}
		end := int(c.FirstIndex + c.Count)
		if end > len(b.Geometry.Indices) {
			return fmt.Errorf("command %d reads indices up to %d of %d: %w", i, end, len(b.Geometry.Indices), ErrInconsistent)
		}
		for _, idx := range b.Geometry.Indices[c.FirstIndex:end] {
			if int(c.BaseVertex)+int(idx) >= b.Geometry.VertexCount {
				return fmt.Errorf("command %d index %d past vertex count %d: %w", i, idx, b.Geometry.VertexCount, ErrInconsistent)
			}
		}
		firstIndex += c.Count
		baseInstance += c.InstanceCount
	}
	if int(firstIndex) != len(b.Geometry.Indices) {
		return fmt.Errorf("commands cover %d of %d indices: %w", firstIndex, len(b.Geometry.Indices), ErrInconsistent)
	}
	if int(baseInstance) != len(b.Instances) {
		return fmt.Errorf("commands cover %d of %d instances: %w", baseInstance, len(b.Instances), ErrInconsistent)
	}
	return nil
}
