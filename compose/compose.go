// Package compose provides right-to-left composition of single-argument
// functions.
//
//	compose.Compose(a, b, c)(x) == a(b(c(x)))
package compose

// Compose returns the right-to-left composition of funcs.
//
// With no functions the identity function is returned, and with exactly one
// that function is returned unchanged. Otherwise the last function is applied
// to the argument first and each remaining function is applied to the
// accumulated result, from rightmost to leftmost.
func Compose[T any](funcs ...func(T) T) func(T) T {
	switch len(funcs) {
	case 0:
		return Identity[T]
	case 1:
		return funcs[0]
	}

	last := funcs[len(funcs)-1]
	rest := funcs[:len(funcs)-1]

	return func(arg T) T {
		composed := last(arg)
		for i := len(rest) - 1; i >= 0; i-- {
			composed = rest[i](composed)
		}
		return composed
	}
}

// Identity returns its argument unchanged.
func Identity[T any](arg T) T {
	return arg
}
