package xsd

import (
	"testing"

	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func leaf(min, max int) *Particle {
	return &Particle{MinOccurs: min, MaxOccurs: max, term: lazy.Of[Term](&Element{})}
}

func groupOf(c Compositor, min, max int, children ...*Particle) *Particle {
	return &Particle{
		MinOccurs: min,
		MaxOccurs: max,
		term:      lazy.Of[Term](&ModelGroup{Compositor: c, Particles: children}),
	}
}

func TestEffectiveRange(t *testing.T) {
	seq := groupOf(CompositorSequence, 1, 1, leaf(2, 2), leaf(2, 5))
	assert.Equal(t, 4, seq.EffectiveMin())
	assert.Equal(t, 7, seq.EffectiveMax())

	choice := groupOf(CompositorChoice, 1, 1, leaf(1, 1), leaf(3, 3))
	assert.Equal(t, 1, choice.EffectiveMin())
	assert.Equal(t, 3, choice.EffectiveMax())

	unbounded := groupOf(CompositorSequence, 1, 2, leaf(1, 1), leaf(0, Unbounded))
	assert.Equal(t, Unbounded, unbounded.EffectiveMax())

	never := groupOf(CompositorSequence, 0, 0, leaf(1, Unbounded))
	assert.Equal(t, 0, never.EffectiveMax())
	assert.True(t, never.Emptiable())

	optional := groupOf(CompositorChoice, 1, 1, leaf(0, 1), leaf(1, 1))
	assert.True(t, optional.Emptiable())
	assert.False(t, seq.Emptiable())
}

func TestOccursArithmetic(t *testing.T) {
	assert.Equal(t, Unbounded, mulOccurs(Unbounded, 3))
	assert.Equal(t, 0, mulOccurs(Unbounded, 0))
	assert.Equal(t, 0, mulOccurs(0, Unbounded))
	assert.Equal(t, Unbounded, addOccurs(2, Unbounded))
	assert.Equal(t, Unbounded, maxOccurs(Unbounded, 7))
}

func TestUnboundedPropagates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 4).Draw(t, "siblings")
		children := []*Particle{leaf(0, Unbounded)}
		for i := 0; i < n; i++ {
			min := rapid.IntRange(0, 3).Draw(t, "min")
			children = append(children, leaf(min, min+rapid.IntRange(0, 3).Draw(t, "extra")))
		}
		c := Compositor(rapid.IntRange(0, 2).Draw(t, "compositor"))
		max := rapid.IntRange(1, 5).Draw(t, "max")
		p := groupOf(c, 1, max, children...)
		if got := p.EffectiveMax(); got != Unbounded {
			t.Fatalf("effective max of %s with an unbounded child is %d", c, got)
		}
	})
}

func TestSequenceMinIsSum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mins := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 5).Draw(t, "mins")
		own := rapid.IntRange(0, 3).Draw(t, "own")
		var children []*Particle
		sum, least := 0, mins[0]
		for _, m := range mins {
			children = append(children, leaf(m, m))
			sum += m
			if m < least {
				least = m
			}
		}
		if got := groupOf(CompositorSequence, own, own, children...).EffectiveMin(); got != own*sum {
			t.Fatalf("sequence min = %d, want %d", got, own*sum)
		}
		if got := groupOf(CompositorChoice, own, own, children...).EffectiveMin(); got != own*least {
			t.Fatalf("choice min = %d, want %d", got, own*least)
		}
	})
}
