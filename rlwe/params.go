// Package rlwe implements the HE context shared by the BFV scheme and its
// PIR consumers: encryption parameter validation, the mod-switch context
// chain, secret keys, evaluation keys, and key switching.
package rlwe

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
)

// SecurityLevel names the security table EncryptionParameters validation
// checks against.
type SecurityLevel string

const (
	// SecurityQuantum128 enforces the public table upper-bounding log2(Q)
	// for post-quantum 128-bit security at each N.
	SecurityQuantum128 SecurityLevel = "quantum128"
	// SecurityUnchecked skips the security-table check entirely.
	SecurityUnchecked SecurityLevel = "unchecked"
)

// EncryptionParametersLiteral is the JSON-serializable configuration surface
// for an RLWE parameter set, mirroring lattigo's bfv.ParametersLiteral
// JSON-literal pattern.
type EncryptionParametersLiteral struct {
	LogN          int           `json:"polyDegree"`
	T             uint64        `json:"plaintextModulus"`
	Q             []uint64      `json:"coefficientModuli"`
	ErrorStdDev   float64       `json:"errorStdDev"`
	SecurityLevel SecurityLevel `json:"securityLevel"`
}

// EncryptionParameters is validated, immutable BFV parameterization: N, t,
// [q_0...q_{L-1}], errorStdDev, securityLevel.
type EncryptionParameters struct {
	logN          int
	t             uint64
	q             []uint64
	errorStdDev   float64
	securityLevel SecurityLevel
}

// quantum128LogQTable upper-bounds sum(log2 qi) for 128-bit post-quantum
// security at a given ring degree, following the shape of the public
// HE security-estimate tables (conservative, coarse-grained values
// consistent with the commonly published estimates).
var quantum128LogQTable = map[int]int{
	1 << 11: 54,
	1 << 12: 109,
	1 << 13: 218,
	1 << 14: 438,
	1 << 15: 881,
	1 << 16: 1772,
}

// NewEncryptionParameters validates lit and returns an EncryptionParameters.
// Fails with an InsecureParameters herrors.Error if log2(Q) exceeds the
// security table entry for (N, securityLevel), unless securityLevel is
// SecurityUnchecked.
func NewEncryptionParameters(lit EncryptionParametersLiteral) (EncryptionParameters, error) {
	N := 1 << uint(lit.LogN)
	if N < 8 || N > 1<<16 {
		return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "N=%d must be a power of two in [8, 2^16]", N)
	}
	if len(lit.Q) == 0 {
		return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "coefficient moduli must be non-empty")
	}
	if !ring.AllDistinct(lit.Q) {
		return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "coefficient moduli must be distinct")
	}
	for _, qi := range lit.Q {
		if !ring.IsPrime(qi) {
			return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "modulus %d is not prime", qi)
		}
	}
	if !ring.IsPrime(lit.T) {
		return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "plaintext modulus %d is not prime", lit.T)
	}
	minQ := lit.Q[0]
	for _, qi := range lit.Q {
		if qi < minQ {
			minQ = qi
		}
	}
	if lit.T >= minQ {
		return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "plaintext modulus t=%d must be smaller than every ciphertext modulus", lit.T)
	}

	sigma := lit.ErrorStdDev
	if sigma == 0 {
		sigma = ring.StdDev32
	}

	level := lit.SecurityLevel
	if level == "" {
		level = SecurityQuantum128
	}

	if level == SecurityQuantum128 {
		logQ := 0.0
		for _, qi := range lit.Q {
			logQ += log2(qi)
		}
		bound, ok := quantum128LogQTable[N]
		if !ok {
			return EncryptionParameters{}, herrors.New(herrors.InsecureParameters, "no security table entry for N=%d", N)
		}
		if logQ > float64(bound) {
			return EncryptionParameters{}, herrors.New(herrors.InsecureParameters, "log2(Q)=%.1f exceeds quantum128 bound %d for N=%d", logQ, bound, N)
		}
	} else if level != SecurityUnchecked {
		return EncryptionParameters{}, herrors.New(herrors.InvalidParameter, "unknown security level %q", level)
	}

	return EncryptionParameters{
		logN:          lit.LogN,
		t:             lit.T,
		q:             append([]uint64(nil), lit.Q...),
		errorStdDev:   sigma,
		securityLevel: level,
	}, nil
}

// PresetParametersLiteral names a small table of pre-canned parameter sets
// at a few security/noise-budget points, the way lattigo's
// bfv.DefaultParametersLiteral ships a handful of named literals for test
// and example code to build on rather than hand-assembling moduli. These are
// sized for a modest database (a few hundred thousand small entries) at
// quantum128 security; a production deployment still tunes its own
// parameters against its entry count and entry size via
// pir.NewParameters/selectDimensions.
type PresetParametersLiteral string

const (
	// PresetSmall is a low-noise-budget preset for small databases and fast
	// iteration: LogN=12 with a single 54-bit modulus.
	PresetSmall PresetParametersLiteral = "small"
	// PresetMedium carries a second modulus for relinearization/Galois key
	// switching headroom at the same ring degree.
	PresetMedium PresetParametersLiteral = "medium"
	// PresetLarge steps up to LogN=13 for larger databases needing more
	// plaintext slots per row.
	PresetLarge PresetParametersLiteral = "large"
)

var presetLiterals = map[PresetParametersLiteral]EncryptionParametersLiteral{
	PresetSmall: {
		LogN:          12,
		T:             65537,
		Q:             []uint64{18014398508400641},
		SecurityLevel: SecurityQuantum128,
	},
	PresetMedium: {
		LogN:          12,
		T:             65537,
		Q:             []uint64{18014398508400641, 18014398508138497},
		SecurityLevel: SecurityQuantum128,
	},
	PresetLarge: {
		LogN:          13,
		T:             65537,
		Q:             []uint64{18014398508400641, 18014398508138497},
		SecurityLevel: SecurityQuantum128,
	},
}

// Preset looks up one of the pre-canned parameter literals by name.
func Preset(name PresetParametersLiteral) (EncryptionParametersLiteral, error) {
	lit, ok := presetLiterals[name]
	if !ok {
		return EncryptionParametersLiteral{}, herrors.New(herrors.InvalidParameter, "unknown parameter preset %q", name)
	}
	return lit, nil
}

func log2(x uint64) float64 {
	n := 0.0
	for x > 1 {
		x >>= 1
		n++
	}
	// refine with a fractional correction using bit length only is coarse;
	// acceptable for a security-bound check, which only needs to be
	// conservative, not exact to fractions of a bit.
	return n + 1
}

// N returns the ring degree.
func (p EncryptionParameters) N() int { return 1 << uint(p.logN) }

// LogN returns log2(N).
func (p EncryptionParameters) LogN() int { return p.logN }

// T returns the plaintext modulus.
func (p EncryptionParameters) T() uint64 { return p.t }

// Q returns the ciphertext RNS moduli.
func (p EncryptionParameters) Q() []uint64 { return append([]uint64(nil), p.q...) }

// QCount returns the number of RNS moduli (the modulus chain length L).
func (p EncryptionParameters) QCount() int { return len(p.q) }

// ErrorStdDev returns the configured error standard deviation.
func (p EncryptionParameters) ErrorStdDev() float64 { return p.errorStdDev }

// SecurityLevel returns the configured security level.
func (p EncryptionParameters) SecurityLevel() SecurityLevel { return p.securityLevel }

// SupportsSimdEncoding reports t ≡ 1 (mod 2N), the condition under which
// the plaintext ring has the 2N-th roots of unity SIMD batching needs.
func (p EncryptionParameters) SupportsSimdEncoding() bool {
	return p.t%uint64(2*p.N()) == 1
}

// SupportsEvaluationKey reports L >= 2, the minimum modulus chain length
// relinearization and Galois key switching need.
func (p EncryptionParameters) SupportsEvaluationKey() bool {
	return len(p.q) >= 2
}

func (p EncryptionParameters) String() string {
	return fmt.Sprintf("N=%d/T=%d/logQ=%d/security=%s", p.N(), p.t, len(p.q), p.securityLevel)
}

// Equal reports whether p and other validate to the identical parameter
// set, following lattigo's core/rlwe Parameters.Equal, which leans on
// cmp.Equal rather than a hand-written field-by-field comparison for its
// slice-valued fields.
func (p EncryptionParameters) Equal(other EncryptionParameters) bool {
	return p.logN == other.logN &&
		p.t == other.t &&
		p.errorStdDev == other.errorStdDev &&
		p.securityLevel == other.securityLevel &&
		cmp.Equal(p.q, other.q)
}
