package cpu

// execute decodes and runs a single main-table opcode, returning its
// T-cycle cost. Regular instruction families (LD r,r'; ALU A,r; INC/DEC r;
// LD r,d8; the BC/DE/HL/SP group ops; RST; the conditional RET/JP/CALL
// quartets; PUSH/POP) are decoded generically from the opcode's bit fields,
// the same grouping the official opcode tables are built from. Everything
// else is handled by exact opcode in the switch below.
func (c *CPU) execute(opcode uint8) int {
	switch {
	case opcode == 0xCB:
		return c.executeCB(c.fetch8())

	case opcode == 0x76: // HALT
		c.halted = true
		return 4

	case opcode&0xC0 == 0x40: // LD r,r'
		dst, src := (opcode>>3)&0x07, opcode&0x07
		c.set8(dst, c.get8(src))
		if dst == 6 || src == 6 {
			return 8
		}
		return 4

	case opcode&0xC0 == 0x80: // ALU A,r
		op, src := (opcode>>3)&0x07, opcode&0x07
		c.aluOp(op, c.get8(src))
		if src == 6 {
			return 8
		}
		return 4

	case opcode&0xC7 == 0x04: // INC r
		idx := (opcode >> 3) & 0x07
		c.set8(idx, c.inc8(c.get8(idx)))
		if idx == 6 {
			return 12
		}
		return 4

	case opcode&0xC7 == 0x05: // DEC r
		idx := (opcode >> 3) & 0x07
		c.set8(idx, c.dec8(c.get8(idx)))
		if idx == 6 {
			return 12
		}
		return 4

	case opcode&0xC7 == 0x06: // LD r,d8
		idx := (opcode >> 3) & 0x07
		c.set8(idx, c.fetch8())
		if idx == 6 {
			return 12
		}
		return 8

	case opcode&0xCF == 0x01: // LD rp,d16
		c.rp16((opcode >> 4) & 0x03).set(c.fetch16())
		return 12

	case opcode&0xCF == 0x03: // INC rp
		c.rp16((opcode >> 4) & 0x03).incr()
		return 8

	case opcode&0xCF == 0x0B: // DEC rp
		c.rp16((opcode >> 4) & 0x03).decr()
		return 8

	case opcode&0xCF == 0x09: // ADD HL,rp
		c.addHL(c.rp16((opcode >> 4) & 0x03).get())
		return 8

	case opcode&0xC7 == 0xC7: // RST n
		c.push16(c.pc.get())
		c.pc.set(uint16(opcode & 0x38))
		return 16

	case opcode&0xE7 == 0xC0 && opcode < 0xE0: // RET cc
		if c.condition((opcode >> 3) & 0x03) {
			c.pc.set(c.pop16())
			return 20
		}
		return 8

	case opcode&0xC7 == 0xC2 && opcode < 0xE0: // JP cc,a16
		target := c.fetch16()
		if c.condition((opcode >> 3) & 0x03) {
			c.pc.set(target)
			return 16
		}
		return 12

	case opcode&0xC7 == 0xC4 && opcode < 0xE0: // CALL cc,a16
		target := c.fetch16()
		if c.condition((opcode >> 3) & 0x03) {
			c.push16(c.pc.get())
			c.pc.set(target)
			return 24
		}
		return 12

	case opcode&0xCF == 0xC1: // POP rp2
		c.rp2((opcode >> 4) & 0x03).set(c.pop16())
		c.af.setLow(c.af.low() & 0xF0) // F's low nibble is always zero
		return 12

	case opcode&0xCF == 0xC5: // PUSH rp2
		c.push16(c.rp2((opcode >> 4) & 0x03).get())
		return 16

	case opcode&0xC7 == 0xC6: // ALU A,d8
		op := (opcode >> 3) & 0x07
		c.aluOp(op, c.fetch8())
		return 8
	}

	switch opcode {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP, treated as NOP except for the CGB speed-switch handshake
		c.fetch8()
		c.toggleDoubleSpeedIfArmed()
		return 4
	case 0xF3: // DI
		c.ime = false
		c.imePending = false
		return 4
	case 0xFB: // EI
		c.imePending = true
		return 4

	case 0x02: // LD (BC),A
		c.bus.Write(c.bc.get(), c.af.high())
		return 8
	case 0x12: // LD (DE),A
		c.bus.Write(c.de.get(), c.af.high())
		return 8
	case 0x0A: // LD A,(BC)
		c.af.setHigh(c.bus.Read(c.bc.get()))
		return 8
	case 0x1A: // LD A,(DE)
		c.af.setHigh(c.bus.Read(c.de.get()))
		return 8
	case 0x22: // LD (HL+),A
		c.bus.Write(c.hl.get(), c.af.high())
		c.hl.incr()
		return 8
	case 0x2A: // LD A,(HL+)
		c.af.setHigh(c.bus.Read(c.hl.get()))
		c.hl.incr()
		return 8
	case 0x32: // LD (HL-),A
		c.bus.Write(c.hl.get(), c.af.high())
		c.hl.decr()
		return 8
	case 0x3A: // LD A,(HL-)
		c.af.setHigh(c.bus.Read(c.hl.get()))
		c.hl.decr()
		return 8

	case 0x08: // LD (a16),SP
		addr16 := c.fetch16()
		c.bus.Write(addr16, uint8(c.sp.get()))
		c.bus.Write(addr16+1, uint8(c.sp.get()>>8))
		return 20

	case 0x07: // RLCA
		r, carry := rlc(c.af.high())
		c.af.setHigh(r)
		c.setFlagsByte(false, false, false, carry)
		return 4
	case 0x0F: // RRCA
		r, carry := rrc(c.af.high())
		c.af.setHigh(r)
		c.setFlagsByte(false, false, false, carry)
		return 4
	case 0x17: // RLA
		r, carry := rl(c.af.high(), c.isSet(flagC))
		c.af.setHigh(r)
		c.setFlagsByte(false, false, false, carry)
		return 4
	case 0x1F: // RRA
		r, carry := rr(c.af.high(), c.isSet(flagC))
		c.af.setHigh(r)
		c.setFlagsByte(false, false, false, carry)
		return 4

	case 0x27: // DAA
		c.daa()
		return 4
	case 0x2F: // CPL
		c.cpl()
		return 4
	case 0x37: // SCF
		c.scf()
		return 4
	case 0x3F: // CCF
		c.ccf()
		return 4

	case 0x18: // JR r8
		offset := int8(c.fetch8())
		c.pc.set(uint16(int32(c.pc.get()) + int32(offset)))
		return 12
	case 0x20, 0x28, 0x30, 0x38: // JR cc,r8
		offset := int8(c.fetch8())
		if c.condition((opcode >> 3) & 0x03) {
			c.pc.set(uint16(int32(c.pc.get()) + int32(offset)))
			return 12
		}
		return 8

	case 0xC3: // JP a16
		c.pc.set(c.fetch16())
		return 16
	case 0xE9: // JP (HL)
		c.pc.set(c.hl.get())
		return 4
	case 0xCD: // CALL a16
		target := c.fetch16()
		c.push16(c.pc.get())
		c.pc.set(target)
		return 24
	case 0xC9: // RET
		c.pc.set(c.pop16())
		return 16
	case 0xD9: // RETI
		c.pc.set(c.pop16())
		c.ime = true
		return 16

	case 0xE0: // LDH (a8),A
		c.bus.Write(0xFF00+uint16(c.fetch8()), c.af.high())
		return 12
	case 0xF0: // LDH A,(a8)
		c.af.setHigh(c.bus.Read(0xFF00 + uint16(c.fetch8())))
		return 12
	case 0xE2: // LD (C),A
		c.bus.Write(0xFF00+uint16(c.bc.low()), c.af.high())
		return 8
	case 0xF2: // LD A,(C)
		c.af.setHigh(c.bus.Read(0xFF00 + uint16(c.bc.low())))
		return 8
	case 0xEA: // LD (a16),A
		c.bus.Write(c.fetch16(), c.af.high())
		return 16
	case 0xFA: // LD A,(a16)
		c.af.setHigh(c.bus.Read(c.fetch16()))
		return 16

	case 0xE8: // ADD SP,i8
		c.sp.set(c.addSPSigned(int8(c.fetch8())))
		return 16
	case 0xF8: // LD HL,SP+i8
		c.hl.set(c.addSPSigned(int8(c.fetch8())))
		return 12
	case 0xF9: // LD SP,HL
		c.sp.set(c.hl.get())
		return 8

	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		panicUnreachable(opcode, false)
		return 0
	}

	panicUnreachable(opcode, false)
	return 0
}

// aluOp dispatches the eight ALU-A operations selected by bits 3-5 of an
// ALU opcode: ADD, ADC, SUB, SBC, AND, XOR, OR, CP.
func (c *CPU) aluOp(op uint8, value uint8) {
	switch op & 0x07 {
	case 0:
		c.add8(value, false)
	case 1:
		c.add8(value, true)
	case 2:
		c.sub8(value, false, false)
	case 3:
		c.sub8(value, true, false)
	case 4:
		c.and8(value)
	case 5:
		c.xor8(value)
	case 6:
		c.or8(value)
	case 7:
		c.sub8(value, false, true)
	}
}
