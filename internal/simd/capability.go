// Package simd detects the widest vector unit of the running CPU. Chunk views
// use it to pick a lane width for SIMD friendly slices.
package simd

import (
	"os"
	"runtime"
	"strings"
)

// ISA represents a SIMD instruction set family.
type ISA uint8

const (
	// Generic represents pure Go code without vector units.
	Generic ISA = iota
	// NEON represents ARM64 Advanced SIMD (128 bit).
	NEON
	// SSE represents x86-64 SSE2 (128 bit), the amd64 baseline.
	SSE
	// AVX2 represents x86-64 AVX2 (256 bit).
	AVX2
	// AVX512 represents x86-64 AVX-512 (512 bit).
	AVX512
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case SSE:
		return "sse"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// LaneBits returns the vector register width of the ISA in bits. Generic
// reports 128 so that callers always get a usable lane grouping.
func (i ISA) LaneBits() int {
	switch i {
	case AVX512:
		return 512
	case AVX2:
		return 256
	default:
		return 128
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "sse":
		return SSE, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

// Initialized once by the platform init functions.
var (
	activeISA   ISA
	hasOverride bool

	hasASIMD   bool
	hasAVX2    bool
	hasAVX512F bool
)

// initCapabilities selects the active ISA. KURA_SIMD overrides detection if
// the requested ISA is available.
func initCapabilities() {
	if override := os.Getenv("KURA_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok && isISAAvailable(isa) {
			hasOverride = true
			activeISA = isa
			return
		}
	}
	activeISA = selectBestISA()
}

func isISAAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case SSE:
		return runtime.GOARCH == "amd64"
	case AVX2:
		return hasAVX2
	case AVX512:
		return hasAVX512F
	default:
		return false
	}
}

func selectBestISA() ISA {
	switch runtime.GOARCH {
	case "amd64":
		if hasAVX512F {
			return AVX512
		}
		if hasAVX2 {
			return AVX2
		}
		return SSE
	case "arm64":
		if hasASIMD {
			return NEON
		}
	}
	return Generic
}

// ActiveISA returns the selected ISA.
func ActiveISA() ISA { return activeISA }

// IsOverridden reports whether KURA_SIMD selected the ISA.
func IsOverridden() bool { return hasOverride }

// PreferredLaneBits returns the lane width, in bits, of the active ISA.
func PreferredLaneBits() int { return activeISA.LaneBits() }
