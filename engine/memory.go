package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/mathkernel/errors"
)

// Memory wraps the exported linear memory.
type Memory struct {
	mem api.Memory
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Pages returns the memory size in 64KiB pages.
func (m *Memory) Pages() uint32 {
	return m.Size() / 65536
}

// Read copies length bytes starting at offset.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.outOfBounds("read", offset, length)
	}
	return append([]byte(nil), data...), nil
}

// Write copies data to offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	ok := m.mem.Write(offset, data)
	if !ok {
		return m.outOfBounds("write", offset, uint32(len(data)))
	}
	return nil
}

// ReadF64 reads a little-endian float64.
func (m *Memory) ReadF64(offset uint32) (float64, error) {
	val, ok := m.mem.ReadFloat64Le(offset)
	if !ok {
		return 0, m.outOfBounds("read", offset, 8)
	}
	return val, nil
}

// WriteF64 writes a little-endian float64.
func (m *Memory) WriteF64(offset uint32, value float64) error {
	if !m.mem.WriteFloat64Le(offset, value) {
		return m.outOfBounds("write", offset, 8)
	}
	return nil
}

func (m *Memory) outOfBounds(access string, offset, length uint32) error {
	end := int(uint64(offset) + uint64(length))
	return errors.OutOfBounds(errors.PhaseRuntime, []string{"memory", access}, end, int(m.Size()))
}
