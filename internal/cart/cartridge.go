// Package cart parses the cartridge header and provides the Memory Bank
// Controller (MBC) variants that install themselves as bus interceptors.
package cart

import (
	"fmt"
)

const (
	logoAddress           = 0x0104
	logoLength            = 48
	titleAddress          = 0x0134
	titleLength           = 16
	cgbFlagAddress        = 0x0143
	sgbFlagAddress        = 0x0146
	cartTypeAddress       = 0x0147
	romSizeAddress        = 0x0148
	ramSizeAddress        = 0x0149
	headerChecksumAddress = 0x014D
	headerChecksumEnd     = 0x014C
)

// nintendoLogo is the fixed 48-byte bitmap every valid ROM embeds at $0104;
// the boot ROM (not emulated here) refuses to run anything that doesn't
// match it byte-for-byte, and the spec's load() carries the same check.
var nintendoLogo = [logoLength]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0C, 0x00, 0x0D, 0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99, 0xBB, 0xBB, 0x67, 0x63,
	0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// ramBanksByCode maps the $0149 RAM size code to a bank count.
var ramBanksByCode = map[byte]int{
	0x00: 0,
	0x01: 1,
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// Kind identifies which MBC family a cartridge requires.
type Kind uint8

const (
	KindNone Kind = iota
	KindMBC1
	KindMBC2
	KindMBC3
	KindMBC5
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMBC1:
		return "MBC1"
	case KindMBC2:
		return "MBC2"
	case KindMBC3:
		return "MBC3"
	case KindMBC5:
		return "MBC5"
	default:
		return "unknown"
	}
}

// Header is the parsed, validated content of a ROM's cartridge header.
type Header struct {
	Title      string
	Kind       Kind
	RomBanks   int
	RamBanks   int
	CGBFlag    byte
	SGBFlag    byte
	HasBattery bool
	HasRTC     bool
	HasRumble  bool
}

// ParseHeader validates the Nintendo logo and header checksum, then
// extracts the fields load() needs to pick an MBC and size RAM.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x0150 {
		return Header{}, fmt.Errorf("cart: ROM too small to contain a header (%d bytes)", len(rom))
	}

	var logo [logoLength]byte
	copy(logo[:], rom[logoAddress:logoAddress+logoLength])
	if logo != nintendoLogo {
		return Header{}, fmt.Errorf("cart: logo bytes do not match the expected Nintendo logo")
	}

	var sum byte
	for i := titleAddress; i <= headerChecksumEnd; i++ {
		sum = sum - rom[i] - 1
	}
	if sum != rom[headerChecksumAddress] {
		return Header{}, fmt.Errorf("cart: header checksum mismatch, got 0x%02X want 0x%02X", sum, rom[headerChecksumAddress])
	}

	kind, hasBattery, hasRTC, hasRumble, err := decodeCartType(rom[cartTypeAddress])
	if err != nil {
		return Header{}, err
	}

	ramBanks, ok := ramBanksByCode[rom[ramSizeAddress]]
	if !ok {
		return Header{}, fmt.Errorf("cart: unsupported RAM size code 0x%02X", rom[ramSizeAddress])
	}
	// MBC2 has built-in RAM not reflected in the header's RAM size field.
	if kind == KindMBC2 {
		ramBanks = 0
	}

	romBanks := 1 << (rom[romSizeAddress] + 1)

	title := cleanTitle(rom[titleAddress : titleAddress+titleLength])

	return Header{
		Title:      title,
		Kind:       kind,
		RomBanks:   romBanks,
		RamBanks:   ramBanks,
		CGBFlag:    rom[cgbFlagAddress],
		SGBFlag:    rom[sgbFlagAddress],
		HasBattery: hasBattery,
		HasRTC:     hasRTC,
		HasRumble:  hasRumble,
	}, nil
}

func decodeCartType(code byte) (kind Kind, battery, rtc, rumble bool, err error) {
	switch code {
	case 0x00:
		return KindNone, false, false, false, nil
	case 0x01:
		return KindMBC1, false, false, false, nil
	case 0x02:
		return KindMBC1, false, false, false, nil
	case 0x03:
		return KindMBC1, true, false, false, nil
	case 0x05:
		return KindMBC2, false, false, false, nil
	case 0x06:
		return KindMBC2, true, false, false, nil
	case 0x0F:
		return KindMBC3, true, true, false, nil
	case 0x10:
		return KindMBC3, true, true, false, nil
	case 0x11:
		return KindMBC3, false, false, false, nil
	case 0x12:
		return KindMBC3, false, false, false, nil
	case 0x13:
		return KindMBC3, true, false, false, nil
	case 0x19, 0x1A:
		return KindMBC5, false, false, false, nil
	case 0x1B:
		return KindMBC5, true, false, false, nil
	case 0x1C, 0x1D:
		return KindMBC5, false, false, true, nil
	case 0x1E:
		return KindMBC5, true, false, true, nil
	default:
		return 0, false, false, false, fmt.Errorf("cart: unsupported cartridge type code 0x%02X", code)
	}
}

func cleanTitle(raw []byte) string {
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	return string(raw[:end])
}
