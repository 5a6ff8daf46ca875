// Package cpufeatures detects CPU instruction set extensions relevant
// to this server's hot paths: SHA-256 content hashing for cache keys,
// SIMD-assisted byte scanning, and gzip response compression. The
// detected Features are surfaced in startup logs and drive the
// compression level selection.
package cpufeatures

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Features holds the detected CPU ISA extension flags.
type Features struct {
	// Crypto and hashing
	HasAESNI bool // hardware AES
	HasSHANI bool // hardware SHA-256, speeds up payload content keys
	HasCLMUL bool // carry-less multiply, used by CRC32 and GCM

	// SSE family
	HasSSE2  bool
	HasSSE3  bool
	HasSSSE3 bool
	HasSSE41 bool
	HasSSE42 bool // includes the CRC32 instruction

	// AVX family
	HasAVX    bool
	HasAVX2   bool
	HasAVX512 bool // Foundation subset

	// Bit manipulation
	HasBMI1   bool
	HasBMI2   bool
	HasPOPCNT bool

	Vendor    string // "GenuineIntel", "AuthenticAMD", "ARM", ...
	BrandName string
	Arch      string // runtime.GOARCH
}

// featureNames maps each flag to the short name used in logs.
var featureNames = []struct {
	name string
	get  func(*Features) bool
}{
	{"AES-NI", func(f *Features) bool { return f.HasAESNI }},
	{"SHA-NI", func(f *Features) bool { return f.HasSHANI }},
	{"CLMUL", func(f *Features) bool { return f.HasCLMUL }},
	{"SSE2", func(f *Features) bool { return f.HasSSE2 }},
	{"SSE3", func(f *Features) bool { return f.HasSSE3 }},
	{"SSSE3", func(f *Features) bool { return f.HasSSSE3 }},
	{"SSE4.1", func(f *Features) bool { return f.HasSSE41 }},
	{"SSE4.2", func(f *Features) bool { return f.HasSSE42 }},
	{"AVX", func(f *Features) bool { return f.HasAVX }},
	{"AVX2", func(f *Features) bool { return f.HasAVX2 }},
	{"AVX-512", func(f *Features) bool { return f.HasAVX512 }},
	{"BMI1", func(f *Features) bool { return f.HasBMI1 }},
	{"BMI2", func(f *Features) bool { return f.HasBMI2 }},
	{"POPCNT", func(f *Features) bool { return f.HasPOPCNT }},
}

var (
	detectOnce sync.Once
	detected   *Features
)

// Detect reads CPU capabilities from /proc/cpuinfo, with conservative
// per-arch baselines where the file is unavailable. The result is
// computed once per process.
func Detect() *Features {
	detectOnce.Do(func() {
		f := &Features{Arch: runtime.GOARCH}
		switch runtime.GOARCH {
		case "amd64", "386":
			detectX86(f)
		case "arm64":
			detectARM64(f)
		}
		detected = f
	})
	return detected
}

// SupportedExtensions returns the names of all detected extensions in
// log order.
func (f *Features) SupportedExtensions() []string {
	var out []string
	for _, fn := range featureNames {
		if fn.get(f) {
			out = append(out, fn.name)
		}
	}
	return out
}

// Summary returns a one-line string for log output, e.g.
// "SHA-NI SSE4.2 AVX2 BMI2 POPCNT (GenuineIntel)".
func (f *Features) Summary() string {
	exts := f.SupportedExtensions()
	if len(exts) == 0 {
		return fmt.Sprintf("no ISA extensions detected (%s/%s)", f.Arch, f.Vendor)
	}
	vendor := f.Vendor
	if vendor == "" {
		vendor = f.Arch
	}
	return fmt.Sprintf("%s (%s)", strings.Join(exts, " "), vendor)
}

// HashAccelerated reports whether SHA-256 runs in hardware. Content
// cache keys and thumbnail cache names are SHA-256 digests, so this
// dominates the per-request hashing cost on large payloads.
func (f *Features) HashAccelerated() bool {
	return f.HasSHANI
}

// SIMDTier classifies the CPU's vector capability:
//
//	"wide"     - AVX2 or better
//	"sse"      - SSE4.2
//	"baseline" - SSE2 (or NEON on arm64)
//	"minimal"  - no relevant SIMD
func (f *Features) SIMDTier() string {
	switch {
	case f.HasAVX2 || f.HasAVX512:
		return "wide"
	case f.HasSSE42:
		return "sse"
	case f.HasSSE2:
		return "baseline"
	default:
		return "minimal"
	}
}

func detectX86(f *Features) {
	if parseProcCPUInfo(f) {
		return
	}
	// No /proc/cpuinfo. SSE2 is the amd64 baseline.
	f.Vendor = "unknown-" + f.Arch
	f.HasSSE2 = f.Arch == "amd64"
}

// parseProcCPUInfo fills f from Linux /proc/cpuinfo. Returns false when
// the file is missing or carries no flags line.
func parseProcCPUInfo(f *Features) bool {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return false
	}

	var sawFlags bool
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "vendor_id":
			if f.Vendor == "" {
				f.Vendor = value
			}
		case "model name":
			if f.BrandName == "" {
				f.BrandName = value
			}
		case "flags":
			if sawFlags {
				continue
			}
			sawFlags = true
			flags := " " + value + " "
			hasFlag := func(name string) bool {
				return strings.Contains(flags, " "+name+" ")
			}

			f.HasAESNI = hasFlag("aes")
			f.HasSHANI = hasFlag("sha_ni")
			f.HasCLMUL = hasFlag("pclmulqdq")
			f.HasSSE2 = hasFlag("sse2")
			f.HasSSE3 = hasFlag("sse3") || hasFlag("pni")
			f.HasSSSE3 = hasFlag("ssse3")
			f.HasSSE41 = hasFlag("sse4_1")
			f.HasSSE42 = hasFlag("sse4_2")
			f.HasAVX = hasFlag("avx")
			f.HasAVX2 = hasFlag("avx2")
			f.HasAVX512 = hasFlag("avx512f")
			f.HasBMI1 = hasFlag("bmi1")
			f.HasBMI2 = hasFlag("bmi2")
			f.HasPOPCNT = hasFlag("popcnt")
		}
	}
	return sawFlags
}

// detectARM64 reads ARM64 feature flags. NEON maps onto the SSE2
// baseline and the CRC32 extension onto SSE4.2 so SIMDTier answers
// consistently across architectures.
func detectARM64(f *Features) {
	f.Vendor = "ARM"

	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		// ARMv8 crypto extensions are near-universal
		f.HasAESNI = true
		f.HasSHANI = true
		f.HasSSE2 = true
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "CPU implementer", "model name":
			if f.BrandName == "" {
				f.BrandName = value
			}
		case "Features":
			flags := " " + value + " "
			hasFlag := func(name string) bool {
				return strings.Contains(flags, " "+name+" ")
			}

			f.HasAESNI = hasFlag("aes")
			f.HasSHANI = hasFlag("sha2") || hasFlag("sha256")
			f.HasCLMUL = hasFlag("pmull")
			if hasFlag("asimd") {
				f.HasSSE2 = true
			}
			if hasFlag("crc32") {
				f.HasSSE42 = true
			}
			return
		}
	}
}
