package ome

import (
	"fmt"
	"strings"
)

// PixelType is the OME Pixels/@Type value.
type PixelType string

const (
	Int8   PixelType = "int8"
	Uint8  PixelType = "uint8"
	Int16  PixelType = "int16"
	Uint16 PixelType = "uint16"
	Int32  PixelType = "int32"
	Uint32 PixelType = "uint32"
	Float  PixelType = "float"
	Double PixelType = "double"
	Bit    PixelType = "bit"
)

// AllPixelTypes returns all supported pixel types.
func AllPixelTypes() []PixelType {
	return []PixelType{Int8, Uint8, Int16, Uint16, Int32, Uint32, Float, Double, Bit}
}

// ParsePixelType parses a pixel type name. Matching is case-insensitive.
func ParsePixelType(s string) (PixelType, error) {
	p := PixelType(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllPixelTypes() {
		if p == valid {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid pixel type %q, valid types: %v", s, AllPixelTypes())
}

// BitsPerSample returns the storage width of one sample.
func (p PixelType) BitsPerSample() int {
	switch p {
	case Bit:
		return 1
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float:
		return 32
	case Double:
		return 64
	default:
		return 0
	}
}

// BytesPerSample returns the number of bytes per sample, or 0 for sub-byte types.
func (p PixelType) BytesPerSample() int {
	return p.BitsPerSample() / 8
}

// Signed reports whether samples are signed integers.
func (p PixelType) Signed() bool {
	return p == Int8 || p == Int16 || p == Int32
}

// Floating reports whether samples are IEEE floats.
func (p PixelType) Floating() bool {
	return p == Float || p == Double
}

// PixelTypeFor maps a TIFF BitsPerSample/SampleFormat pair to a pixel type.
// SampleFormat follows TIFF: 1 unsigned, 2 signed, 3 IEEE float.
func PixelTypeFor(bitsPerSample, sampleFormat int) (PixelType, error) {
	switch sampleFormat {
	case 0, 1, 4:
		switch bitsPerSample {
		case 1:
			return Bit, nil
		case 8:
			return Uint8, nil
		case 16:
			return Uint16, nil
		case 32:
			return Uint32, nil
		}
	case 2:
		switch bitsPerSample {
		case 8:
			return Int8, nil
		case 16:
			return Int16, nil
		case 32:
			return Int32, nil
		}
	case 3:
		switch bitsPerSample {
		case 32:
			return Float, nil
		case 64:
			return Double, nil
		}
	}
	return "", fmt.Errorf("unsupported sample layout: %d bits, sample format %d", bitsPerSample, sampleFormat)
}

// SampleFormat returns the TIFF SampleFormat code for the pixel type.
func (p PixelType) SampleFormat() int {
	switch {
	case p.Floating():
		return 3
	case p.Signed():
		return 2
	default:
		return 1
	}
}
