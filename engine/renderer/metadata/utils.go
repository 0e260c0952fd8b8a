package metadata

type MemoryRange struct {
	Offset uint64
	Size   uint64
}

// GetAlignedRange rounds both ends of a range up to granularity.
func GetAlignedRange(offset, size, granularity uint64) MemoryRange {
	return MemoryRange{
		Offset: GetAligned(offset, granularity),
		Size:   GetAligned(size, granularity),
	}
}

// GetAligned rounds operand up to the next multiple of granularity, which must be a power of two.
func GetAligned(operand, granularity uint64) uint64 {
	if granularity == 0 {
		return operand
	}
	return (operand + (granularity - 1)) &^ (granularity - 1)
}
