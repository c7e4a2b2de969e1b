package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, N int) *PolyContext {
	t.Helper()
	primes, err := GeneratePrimes([]int{17, 19}, false, 2*N)
	require.NoError(t, err)
	ctx, err := NewPolyContext(N, primes)
	require.NoError(t, err)
	return ctx
}

func TestNTTRoundTrip(t *testing.T) {
	N := 32
	ctx := testContext(t, N)

	seed := [32]byte{1, 2, 3}
	sampler := NewUniformSampler(ctx, seed)

	p := sampler.ReadNew()
	mont := ctx.NewPoly(Coeff)
	ctx.ToMontgomery(p, mont)

	evalForm := ctx.NewPoly(Coeff)
	ctx.NTT(mont, evalForm)

	back := ctx.NewPoly(Eval)
	ctx.INTT(evalForm, back)

	backStd := ctx.NewPoly(Coeff)
	ctx.FromMontgomery(back, backStd)

	require.True(t, ctx.Equal(p, backStd), "INTT(NTT(p)) must equal p")
}

func TestNTTIsRingHomomorphism(t *testing.T) {
	N := 32
	ctx := testContext(t, N)
	seed := [32]byte{9, 9, 9}
	sampler := NewUniformSampler(ctx, seed)

	a := sampler.ReadNew()
	b := sampler.ReadNew()

	aM, bM := ctx.NewPoly(Coeff), ctx.NewPoly(Coeff)
	ctx.ToMontgomery(a, aM)
	ctx.ToMontgomery(b, bM)

	sum := ctx.NewPoly(Coeff)
	ctx.Add(aM, bM, sum)

	sumEval := ctx.NewPoly(Coeff)
	ctx.NTT(sum, sumEval)

	aEval, bEval := ctx.NewPoly(Coeff), ctx.NewPoly(Coeff)
	ctx.NTT(aM, aEval)
	ctx.NTT(bM, bEval)
	evalSum := ctx.NewPoly(Eval)
	ctx.Add(aEval, bEval, evalSum)

	require.True(t, ctx.Equal(sumEval, evalSum), "NTT(a+b) must equal NTT(a)+NTT(b)")
}

func TestApplyGaloisSwapRowsInvolution(t *testing.T) {
	N := 16
	ctx := testContext(t, N)
	seed := [32]byte{5}
	sampler := NewUniformSampler(ctx, seed)

	p := sampler.ReadNew()
	g := SwappingRows(N)

	once := ctx.NewPoly(Coeff)
	ctx.ApplyGalois(p, g, once)
	twice := ctx.NewPoly(Coeff)
	ctx.ApplyGalois(once, g, twice)

	require.True(t, ctx.Equal(p, twice), "applying swapRows twice must be the identity")
}

func TestApplyGaloisComposition(t *testing.T) {
	N := 16
	ctx := testContext(t, N)
	seed := [32]byte{7}
	sampler := NewUniformSampler(ctx, seed)
	p := sampler.ReadNew()

	g1 := RotatingColumns(1, N)
	g2 := RotatingColumns(2, N)
	twoN := uint64(2 * N)

	step1 := ctx.NewPoly(Coeff)
	ctx.ApplyGalois(p, g1, step1)
	step2 := ctx.NewPoly(Coeff)
	ctx.ApplyGalois(step1, g2, step2)

	composed := ctx.NewPoly(Coeff)
	ctx.ApplyGalois(p, (g1*g2)%twoN, composed)

	require.True(t, ctx.Equal(step2, composed), "applyGalois(g1, applyGalois(g2,p)) == applyGalois(g1*g2 mod 2N, p)")
}

func TestApplyGaloisCoeffEvalAgree(t *testing.T) {
	N := 16
	ctx := testContext(t, N)
	seed := [32]byte{3}
	sampler := NewUniformSampler(ctx, seed)
	p := sampler.ReadNew()
	g := RotatingColumns(1, N)

	coeffResult := ctx.NewPoly(Coeff)
	ctx.ApplyGalois(p, g, coeffResult)

	mont := ctx.NewPoly(Coeff)
	ctx.ToMontgomery(p, mont)
	evalForm := ctx.NewPoly(Coeff)
	ctx.NTT(mont, evalForm)
	evalResult := ctx.NewPoly(Eval)
	ctx.ApplyGalois(evalForm, g, evalResult)
	backCoeff := ctx.NewPoly(Eval)
	ctx.INTT(evalResult, backCoeff)
	backStd := ctx.NewPoly(Coeff)
	ctx.FromMontgomery(backCoeff, backStd)

	require.True(t, ctx.Equal(coeffResult, backStd), "applyGalois must agree between Coeff and Eval form")
}

func TestUniformSamplerDeterministic(t *testing.T) {
	N := 16
	ctx := testContext(t, N)
	seed := [32]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	s1 := NewUniformSampler(ctx, seed)
	s2 := NewUniformSampler(ctx, seed)

	p1 := s1.ReadNew()
	p2 := s2.ReadNew()
	require.True(t, ctx.Equal(p1, p2), "same seed must produce identical first draw")
}

func TestUniformSamplerSeek(t *testing.T) {
	N := 16
	ctx := testContext(t, N)
	seed := [32]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	sequential := NewUniformSampler(ctx, seed)
	var offsetBeforeLast uint64
	var last *Poly
	for i := 0; i < 5; i++ {
		if i == 4 {
			offsetBeforeLast = sequential.drbg.BlockCounter()
		}
		last = sequential.ReadNew()
	}

	seeked := NewUniformSampler(ctx, seed)
	seeked.Seek(offsetBeforeLast)
	jumped := seeked.ReadNew()

	require.True(t, ctx.Equal(last, jumped), "Seek to the 5th poly's exact block offset must match sequential draw")
}

func TestRemoveLastModuli(t *testing.T) {
	N := 16
	primes, err := GeneratePrimes([]int{17, 19, 23}, false, 2*N)
	require.NoError(t, err)
	ctx, err := NewPolyContext(N, primes)
	require.NoError(t, err)
	require.Equal(t, 2, ctx.Level())

	next, err := ctx.RemoveLastModuli(1)
	require.NoError(t, err)
	require.Equal(t, 1, next.Level())

	_, err = next.RemoveLastModuli(5)
	require.Error(t, err)
}

func TestGeneratePrimesNTTFriendly(t *testing.T) {
	N := 1024
	primes, err := GeneratePrimes([]int{20, 20, 30}, true, 2*N)
	require.NoError(t, err)
	require.Len(t, primes, 3)
	for _, p := range primes {
		require.True(t, IsPrime(p))
		require.Equal(t, uint64(1), p%uint64(2*N))
	}
}
