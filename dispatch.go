package nj

import "github.com/klauspost/cpuid/v2"

// bitExtractor pulls the set-bit positions out of a structural mask and
// appends their document-relative offsets to dst. Both implementations are
// pure Go and must agree bit-for-bit; the dispatch only picks which one the
// running CPU executes fastest, never which one is correct.
type bitExtractor func(mask uint64, base int, dst []uint32) []uint32

// selectBitExtractor picks extractBitsPopcnt on CPUs that report POPCNT and
// BMI2 (its loop in bitindex.go is a direct translation of the classic
// "iterate set bits via x &= x-1" trick that those extensions pipeline
// well), falling back to extractBitsScalar otherwise.
func selectBitExtractor() bitExtractor {
	if cpuid.CPU.Supports(cpuid.POPCNT, cpuid.BMI2) {
		return extractBitsPopcnt
	}
	return extractBitsScalar
}

// SupportedCPU reports whether the running CPU has the feature set this
// module's structural scan was tuned against. A false result is advisory
// only: extractBitsScalar is always correct, merely slower.
func SupportedCPU() bool {
	return cpuid.CPU.Supports(cpuid.POPCNT, cpuid.BMI2)
}
