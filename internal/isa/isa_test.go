package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chicc/internal/target"
)

func TestParseListProfile(t *testing.T) {
	cfg, err := ParseList("apple-m4")
	require.NoError(t, err)
	got := cfg.EffectiveTiers(target.Aarch64)
	names := make([]string, len(got))
	for i, tier := range got {
		names[i] = tier.String()
	}
	assert.Equal(t, []string{
		"baseline", "dotprod", "fp16fml", "bf16", "i8mm", "crypto", "pauth", "bti", "sme",
	}, names)
}

func TestParseListAliases(t *testing.T) {
	cfg, err := ParseList("sse42,avx-512,dot-product")
	require.NoError(t, err)
	assert.Contains(t, cfg.Tiers(), Baseline)
	assert.Contains(t, cfg.Tiers(), Avx512)
	assert.Contains(t, cfg.Tiers(), DotProd)
}

func TestParseListEmpty(t *testing.T) {
	_, err := ParseList("")
	assert.Error(t, err)
}

func TestParseListUnknownToken(t *testing.T) {
	_, err := ParseList("bogus-tier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus-tier")
}

// TestRoundTrip verifies spec.md §8 property 2: from_tiers(parse_list(spec).tiers()).tiers() ==
// parse_list(spec).tiers() for every accepted spec, Baseline always included, and
// effective_tiers(arch) is a subset of tiers().
func TestRoundTrip(t *testing.T) {
	specs := []string{"auto", "baseline,avx2", "neon,sve,sve2", "apple-m1", "neoverse-v2"}
	for _, spec := range specs {
		cfg, err := ParseList(spec)
		require.NoError(t, err)
		rt := FromTiers(cfg.Tiers())
		assert.Equal(t, cfg.Tiers(), rt.Tiers(), "round trip for %q", spec)
		assert.Contains(t, cfg.Tiers(), Baseline)
		for _, arch := range []target.Arch{target.X86_64, target.Aarch64} {
			eff := cfg.EffectiveTiers(arch)
			for _, t1 := range eff {
				assert.Contains(t, cfg.Tiers(), t1)
			}
		}
	}
}

func TestSetSveBits(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.SetSveBits(100))
	assert.Error(t, cfg.SetSveBits(129))
	assert.NoError(t, cfg.SetSveBits(256))
	bits, ok := cfg.SveBits()
	assert.True(t, ok)
	assert.EqualValues(t, 256, bits)
}

// TestFingerprintDeterminism verifies spec.md §8 property 3.
func TestFingerprintDeterminism(t *testing.T) {
	a := FromTiers([]Tier{Avx2, Baseline, Avx512})
	b := FromTiers([]Tier{Avx512, Avx2})
	require.NoError(t, ptrSetSve(&a, 256))
	require.NoError(t, ptrSetSve(&b, 256))
	assert.Equal(t, a.FingerprintBytes(), b.FingerprintBytes())
}

func ptrSetSve(c *Config, bits uint32) error { return c.SetSveBits(bits) }
