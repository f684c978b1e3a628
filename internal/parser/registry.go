package parser

// Registry returns the supported layouts in selection order. On an exact
// confidence tie the earlier parser wins, so the order is part of the
// behavior.
func Registry(skipper Skipper, corrector Corrector, opts ...Option) []Parser {
	o := buildOptions(opts)
	return []Parser{
		NewFalabellaCredit(skipper, corrector),
		NewSantanderCredit(skipper, corrector),
		NewSantanderChecking(skipper, corrector, o.now),
		NewFalabellaChecking(skipper, corrector, o.now),
	}
}

// ByName returns the registered parser with the given format name.
func ByName(parsers []Parser, name string) (Parser, bool) {
	for _, p := range parsers {
		if p.Format().Name == name {
			return p, true
		}
	}
	return nil, false
}
