package inference

// factor is a non-negative function over discrete variables stored densely
// in mixed radix with the last variable varying fastest. This matches the
// layout of a probability table with its parents first and the node last.
type factor struct {
	vars   []int
	card   []int
	values []float64
}

func newFactor(vars, card []int) *factor {
	size := 1
	for _, c := range card {
		size *= c
	}
	return &factor{vars: vars, card: card, values: make([]float64, size)}
}

func (f *factor) strides() []int {
	s := make([]int, len(f.vars))
	acc := 1
	for i := len(f.vars) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= f.card[i]
	}
	return s
}

func (f *factor) has(v int) bool {
	return indexOf(f.vars, v) >= 0
}

func indexOf(vars []int, v int) int {
	for i, x := range vars {
		if x == v {
			return i
		}
	}
	return -1
}

// next advances an assignment odometer, last position fastest.
func next(asg, card []int) {
	for i := len(asg) - 1; i >= 0; i-- {
		asg[i]++
		if asg[i] < card[i] {
			return
		}
		asg[i] = 0
	}
}

// product multiplies two factors over the union of their variables.
func product(a, b *factor) *factor {
	vars := append([]int(nil), a.vars...)
	card := append([]int(nil), a.card...)
	for i, v := range b.vars {
		if indexOf(vars, v) < 0 {
			vars = append(vars, v)
			card = append(card, b.card[i])
		}
	}
	out := newFactor(vars, card)

	posA := make([]int, len(a.vars))
	for i, v := range a.vars {
		posA[i] = indexOf(vars, v)
	}
	posB := make([]int, len(b.vars))
	for i, v := range b.vars {
		posB[i] = indexOf(vars, v)
	}
	sa, sb := a.strides(), b.strides()

	asg := make([]int, len(vars))
	for i := range out.values {
		ia, ib := 0, 0
		for j, p := range posA {
			ia += asg[p] * sa[j]
		}
		for j, p := range posB {
			ib += asg[p] * sb[j]
		}
		out.values[i] = a.values[ia] * b.values[ib]
		next(asg, card)
	}
	return out
}

// without returns the variables and cardinalities of f minus position pos.
func (f *factor) without(pos int) ([]int, []int) {
	vars := make([]int, 0, len(f.vars)-1)
	card := make([]int, 0, len(f.card)-1)
	for i := range f.vars {
		if i != pos {
			vars = append(vars, f.vars[i])
			card = append(card, f.card[i])
		}
	}
	return vars, card
}

// project maps each entry of f onto a factor without position pos. keep
// decides which entries contribute; contributions are summed.
func (f *factor) project(pos int, keep func(state int) bool) *factor {
	out := newFactor(f.without(pos))
	so := out.strides()
	asg := make([]int, len(f.vars))
	for _, val := range f.values {
		if keep(asg[pos]) {
			idx, k := 0, 0
			for j := range asg {
				if j == pos {
					continue
				}
				idx += asg[j] * so[k]
				k++
			}
			out.values[idx] += val
		}
		next(asg, f.card)
	}
	return out
}

// sumOut marginalizes v away.
func sumOut(f *factor, v int) *factor {
	pos := indexOf(f.vars, v)
	if pos < 0 {
		return f
	}
	return f.project(pos, func(int) bool { return true })
}

// reduce fixes v to state s and drops it.
func reduce(f *factor, v, s int) *factor {
	pos := indexOf(f.vars, v)
	if pos < 0 {
		return f
	}
	return f.project(pos, func(state int) bool { return state == s })
}

func (f *factor) sum() float64 {
	total := 0.0
	for _, v := range f.values {
		total += v
	}
	return total
}
