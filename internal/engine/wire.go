package engine

import (
	"github.com/Veraticus/cartola/internal/classification"
	"github.com/Veraticus/cartola/internal/correction"
	"github.com/Veraticus/cartola/internal/filter"
	"github.com/Veraticus/cartola/internal/parser"
	"github.com/Veraticus/cartola/internal/rules"
)

// Components are the pieces of a pipeline built over one rule store.
type Components struct {
	Filter     *filter.Engine
	Corrector  *correction.Corrector
	Classifier *classification.Classifier
	Parsers    []parser.Parser
}

// Wire builds the filter, corrector, parsers and classifier over store.
// Lines without both a letter and a digit are always skipped.
func Wire(store *rules.Store, taxonomy *classification.Taxonomy, opts ...parser.Option) Components {
	skipper := filter.New(store, filter.RequireLetterAndDigit())
	corrector := correction.New(store)
	return Components{
		Filter:     skipper,
		Corrector:  corrector,
		Classifier: classification.New(store, taxonomy),
		Parsers:    parser.Registry(skipper, corrector, opts...),
	}
}

// NewFromStore returns an engine wired over store.
func NewFromStore(store *rules.Store, taxonomy *classification.Taxonomy, parserOpts []parser.Option, opts ...Option) *Engine {
	c := Wire(store, taxonomy, parserOpts...)
	return New(c.Parsers, c.Classifier, opts...)
}
