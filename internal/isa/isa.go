// Package isa parses and normalizes CPU ISA tier lists and vector-width constraints, and
// filters them against a target architecture. It is deliberately small (spec.md §4.1, ~2% of
// core): a sorted set of Tier values plus an optional SVE vector width.
package isa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"chicc/internal/target"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Tier identifies one step of the CPU ISA hierarchy.
type Tier uint

// Config is an ordered, deduplicated set of Tiers plus an optional SVE vector width.
type Config struct {
	tiers   []Tier
	sveBits uint32 // 0 means "unset".
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Baseline Tier = iota
	Avx2
	Avx512
	Amx
	DotProd
	Fp16Fml
	Bf16
	I8mm
	Sve
	Sve2
	Crypto
	Pauth
	Bti
	Sme
)

var tierNames = [...]string{
	"baseline", "avx2", "avx512", "amx", "dotprod", "fp16fml", "bf16", "i8mm",
	"sve", "sve2", "crypto", "pauth", "bti", "sme",
}

// aliases maps case-insensitive spec tokens onto their canonical Tier.
var aliases = map[string]Tier{
	"baseline": Baseline,
	"sse42":    Baseline,
	"neon":     Baseline,
	"avx2":     Avx2,
	"avx512":   Avx512,
	"avx-512":  Avx512,
	"amx":      Amx,
	"dotprod":      DotProd,
	"dot-product":  DotProd,
	"udot":         DotProd,
	"fp16fml":  Fp16Fml,
	"fp16-fml": Fp16Fml,
	"bf16":     Bf16,
	"i8mm":     I8mm,
	"sve":      Sve,
	"sve2":     Sve2,
	"crypto":   Crypto,
	"pauth":    Pauth,
	"bti":      Bti,
	"sme":      Sme,
}

// x86Tiers and aarch64Tiers enumerate which tiers are valid on each supported architecture.
var x86Tiers = map[Tier]bool{Baseline: true, Avx2: true, Avx512: true, Amx: true}
var aarch64Tiers = map[Tier]bool{
	Baseline: true, DotProd: true, Fp16Fml: true, Bf16: true, I8mm: true,
	Sve: true, Sve2: true, Crypto: true, Pauth: true, Bti: true, Sme: true,
}

// profile is a named bundle of tiers for a specific CPU, keyed by lowercase name. Kept as a Go
// literal fallback; internal/isa/profiles.yaml (embedded, see profiles.go) is the canonical,
// extensible source — this map is consulted only for names the YAML profiles do not define, so
// isa.Config works even if the embed fails to parse in a stripped-down build.
var profile = map[string][]Tier{
	"apple-m1":      {Baseline, DotProd, Fp16Fml, Crypto, Pauth, Bti},
	"apple-m2":      {Baseline, DotProd, Fp16Fml, Bf16, Crypto, Pauth, Bti},
	"apple-m3":      {Baseline, DotProd, Fp16Fml, Bf16, I8mm, Crypto, Pauth, Bti},
	"apple-m4":      {Baseline, DotProd, Fp16Fml, Bf16, I8mm, Crypto, Pauth, Bti, Sme},
	"ampere-altra":  {Baseline, DotProd, Crypto},
	"ampere-one":    {Baseline, DotProd, Bf16, I8mm, Crypto, Pauth, Bti},
	"nvidia-grace":  {Baseline, DotProd, Bf16, I8mm, Sve, Sve2, Crypto, Pauth, Bti},
	"neoverse-n1":   {Baseline, DotProd, Crypto},
	"neoverse-v2":   {Baseline, DotProd, Bf16, I8mm, Sve, Sve2, Crypto, Pauth, Bti},
}

// ---------------------
// ----- functions -----
// ---------------------

// String returns the canonical lowercase token for the Tier.
func (t Tier) String() string {
	if int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

// ParseList accepts "auto", a comma-separated tier list (aliases resolved case-insensitively),
// or a CPU profile name, and returns a normalized Config. An empty spec is an error.
func ParseList(spec string) (Config, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Config{}, errors.New("cpu-isa spec must not be empty")
	}
	if strings.EqualFold(spec, "auto") {
		return FromTiers([]Tier{Baseline}), nil
	}
	if tiers, ok := lookupProfile(strings.ToLower(spec)); ok {
		return FromTiers(tiers), nil
	}
	var tiers []Tier
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		t, ok := aliases[tok]
		if !ok {
			return Config{}, errors.Errorf("unrecognized cpu-isa token: %q", tok)
		}
		tiers = append(tiers, t)
	}
	if len(tiers) == 0 {
		return Config{}, errors.Errorf("cpu-isa spec %q named no tiers", spec)
	}
	return FromTiers(tiers), nil
}

// FromTiers sorts and deduplicates tiers and ensures Baseline is always present and first.
func FromTiers(list []Tier) Config {
	seen := make(map[Tier]bool, len(list)+1)
	seen[Baseline] = true
	for _, t := range list {
		seen[t] = true
	}
	out := make([]Tier, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Config{tiers: out}
}

// Tiers returns the sorted, deduplicated tier set.
func (c Config) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// EffectiveTiers returns the subset of c's tiers that are valid on arch.
func (c Config) EffectiveTiers(arch target.Arch) []Tier {
	valid := x86Tiers
	if arch == target.Aarch64 {
		valid = aarch64Tiers
	}
	var out []Tier
	for _, t := range c.tiers {
		if valid[t] {
			out = append(out, t)
		}
	}
	return out
}

// SetSveBits records the SVE vector width, in bits. It rejects values below 128 or not a
// multiple of 128.
func (c *Config) SetSveBits(bits uint32) error {
	if bits < 128 || bits%128 != 0 {
		return errors.Errorf("sve vector width must be a multiple of 128 >= 128, got %d", bits)
	}
	c.sveBits = bits
	return nil
}

// SveBits returns the configured SVE vector width and whether one was set.
func (c Config) SveBits() (uint32, bool) {
	return c.sveBits, c.sveBits != 0
}

// FingerprintBytes returns a deterministic byte sequence suitable for use as a cache key: the
// sorted tier indices followed by the little-endian SVE bit width when set.
func (c Config) FingerprintBytes() []byte {
	out := make([]byte, 0, len(c.tiers)+4)
	for _, t := range c.tiers {
		out = append(out, byte(t))
	}
	if c.sveBits != 0 {
		out = append(out,
			byte(c.sveBits), byte(c.sveBits>>8), byte(c.sveBits>>16), byte(c.sveBits>>24))
	}
	return out
}

func lookupProfile(name string) ([]Tier, bool) {
	if tiers, ok := loadedProfiles[name]; ok {
		return tiers, true
	}
	tiers, ok := profile[name]
	return tiers, ok
}

func fmtTiers(tiers []Tier) string {
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

// String implements fmt.Stringer for Config, used in diagnostics and fingerprint debugging.
func (c Config) String() string {
	s := fmtTiers(c.tiers)
	if c.sveBits != 0 {
		s = fmt.Sprintf("%s;sve=%d", s, c.sveBits)
	}
	return s
}
