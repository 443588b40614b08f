package ner

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdkato/prose/v2"
)

// Entity is a raw recognizer hit.
type Entity struct {
	Text  string
	Label string
}

// Recognizer finds named entities in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// ProseRecognizer recognizes entities with the prose English model.
// The model is decoded on first use and shared by all later calls,
// including concurrent ones.
type ProseRecognizer struct {
	once    sync.Once
	model   *prose.Model
	loadErr error
}

// NewProseRecognizer creates a ProseRecognizer.
func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

// loadModel decodes the default tagging and extraction model once.
func (p *ProseRecognizer) loadModel() (*prose.Model, error) {
	p.once.Do(func() {
		doc, err := prose.NewDocument("", prose.WithSegmentation(false))
		if err != nil {
			p.loadErr = fmt.Errorf("failed to load entity model: %w", err)
			return
		}
		p.model = doc.Model
	})
	return p.model, p.loadErr
}

// Recognize tokenizes, tags, and classifies text, returning the entities found.
func (p *ProseRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := p.loadModel()
	if err != nil {
		return nil, err
	}
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false), prose.UsingModel(m))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	found := doc.Entities()
	entities := make([]Entity, 0, len(found))
	for _, e := range found {
		entities = append(entities, Entity{Text: e.Text, Label: e.Label})
	}
	return entities, nil
}
