package cpu

// executeCB decodes and runs one CB-prefixed opcode. The whole table is one
// of four uniform families keyed by bits 6-7: rotate/shift/swap (00),
// BIT (01), RES (10), SET (11), each acting on the operand selected by the
// low 3 bits (B,C,D,E,H,L,(HL),A).
func (c *CPU) executeCB(opcode uint8) int {
	idx := opcode & 0x07
	group := opcode & 0xC0
	bitIndex := (opcode >> 3) & 0x07

	isMemory := idx == 6
	value := c.get8(idx)

	switch group {
	case 0x00:
		result, carry := c.rotateOrShift((opcode>>3)&0x07, value)
		c.set8(idx, result)
		c.setFlagsByte(result == 0, false, false, carry)
		if isMemory {
			return 16
		}
		return 8

	case 0x40: // BIT b,r
		set := value&(1<<bitIndex) != 0
		c.setFlagTo(flagZ, !set)
		c.resetFlag(flagN)
		c.setFlag(flagH)
		if isMemory {
			return 12
		}
		return 8

	case 0x80: // RES b,r
		c.set8(idx, value&^(1<<bitIndex))
		if isMemory {
			return 16
		}
		return 8

	default: // 0xC0: SET b,r
		c.set8(idx, value|(1<<bitIndex))
		if isMemory {
			return 16
		}
		return 8
	}
}

// rotateOrShift dispatches the eight CB rotate/shift/swap operations
// selected by bits 3-5 of a 0x00-0x3F CB opcode.
func (c *CPU) rotateOrShift(op uint8, value uint8) (result uint8, carry bool) {
	switch op & 0x07 {
	case 0:
		return rlc(value)
	case 1:
		return rrc(value)
	case 2:
		return rl(value, c.isSet(flagC))
	case 3:
		return rr(value, c.isSet(flagC))
	case 4:
		return sla(value)
	case 5:
		return sra(value)
	case 6:
		return swap(value), false
	default:
		return srl(value)
	}
}
