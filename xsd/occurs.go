package xsd

// The effective total range of a particle is the number of elements a
// sequence of its occurrences can contain. For element and wildcard
// terms it is the particle's own range; for model groups it is computed
// from the ranges of the group's particles.

// mulOccurs multiplies occurrence bounds. Zero times unbounded is zero.
func mulOccurs(a, b int) int {
	switch {
	case a == 0 || b == 0:
		return 0
	case a == Unbounded || b == Unbounded:
		return Unbounded
	}
	return a * b
}

func addOccurs(a, b int) int {
	if a == Unbounded || b == Unbounded {
		return Unbounded
	}
	return a + b
}

func maxOccurs(a, b int) int {
	if a == Unbounded || b == Unbounded {
		return Unbounded
	}
	if a > b {
		return a
	}
	return b
}

// EffectiveMin returns the minimum of the effective total range of p.
func (p *Particle) EffectiveMin() int {
	return p.effectiveMin(make(map[*ModelGroup]bool))
}

// EffectiveMax returns the maximum of the effective total range of p,
// which is Unbounded if there is no upper limit.
func (p *Particle) EffectiveMax() int {
	return p.effectiveMax(make(map[*ModelGroup]bool))
}

// Emptiable reports whether p can be satisfied by no content at all.
func (p *Particle) Emptiable() bool {
	return p.MinOccurs == 0 || p.EffectiveMin() == 0
}

// A group that contains itself is reported by Compile; the active set
// keeps these functions finite on such groups anyway.
func (p *Particle) effectiveMin(active map[*ModelGroup]bool) int {
	g, ok := p.Term().(*ModelGroup)
	if !ok {
		return p.MinOccurs
	}
	if active[g] {
		return 0
	}
	active[g] = true
	defer delete(active, g)

	var min int
	for i, c := range g.Particles {
		m := c.effectiveMin(active)
		switch {
		case g.Compositor != CompositorChoice:
			min += m
		case i == 0 || m < min:
			min = m
		}
	}
	return p.MinOccurs * min
}

func (p *Particle) effectiveMax(active map[*ModelGroup]bool) int {
	g, ok := p.Term().(*ModelGroup)
	if !ok {
		return p.MaxOccurs
	}
	if active[g] {
		return Unbounded
	}
	active[g] = true
	defer delete(active, g)

	var max int
	for _, c := range g.Particles {
		m := c.effectiveMax(active)
		if g.Compositor == CompositorChoice {
			max = maxOccurs(max, m)
		} else {
			max = addOccurs(max, m)
		}
	}
	return mulOccurs(p.MaxOccurs, max)
}
