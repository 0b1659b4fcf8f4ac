package batch

import "encoding/binary"

// DrawCommandSize is the byte size of one indirect command.
const DrawCommandSize = 20

// DrawCommand is the DrawElementsIndirectCommand layout read by
// glMultiDrawElementsIndirect.
type DrawCommand struct {
	Count         uint32 // Indices in the mesh
	InstanceCount uint32 // Entities instancing the mesh's model
	FirstIndex    uint32 // Indices of every earlier command
	BaseVertex    int32  // Added to each index before vertex fetch
	BaseInstance  uint32 // First instance record of this command
}

// Encode writes the command into dst, which must hold DrawCommandSize bytes.
func (c DrawCommand) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], c.Count)
	binary.LittleEndian.PutUint32(dst[4:], c.InstanceCount)
	binary.LittleEndian.PutUint32(dst[8:], c.FirstIndex)
	binary.LittleEndian.PutUint32(dst[12:], uint32(c.BaseVertex))
	binary.LittleEndian.PutUint32(dst[16:], c.BaseInstance)
}

// EncodeCommands serializes a command list back to back.
func EncodeCommands(cmds []DrawCommand) []byte {
	out := make([]byte, len(cmds)*DrawCommandSize)
	for i, c := range cmds {
		c.Encode(out[i*DrawCommandSize:])
	}
	return out
}
