package decoy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Persona identifies one of the host application's visual disguises.
type Persona string

const (
	// PersonaJournal is the private diary disguise.
	PersonaJournal Persona = "journal"
	// PersonaChat is the messenger disguise.
	PersonaChat Persona = "chat"
	// PersonaStudy is the study-planner disguise.
	PersonaStudy Persona = "study"
)

// Preset names one fabricated conversation within a persona.
type Preset string

// PresetAuto asks the provider to pick one of the persona's presets
// pseudo-randomly. The result is always a single complete conversation,
// never a mix.
const PresetAuto Preset = "auto"

// Direction tells whether a fabricated message reads as received or sent.
type Direction uint8

const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
)

// Message is one fabricated record of a decoy conversation.
type Message struct {
	ID        string
	Author    string
	Direction Direction
	Text      string
	SentAt    time.Time
}

var (
	// ErrUnknownPersona means the persona has no catalog entries.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrUnknownPreset means the persona exists but the preset does not.
	ErrUnknownPreset = errors.New("unknown preset")
)

// Provider hands out conversations from the built-in catalog. Identifiers
// and timestamps are materialized once at construction, so every call for
// the same (persona, preset) returns the same records. Safe for concurrent
// use.
type Provider struct {
	mu    sync.Mutex
	rng   *rand.Rand
	built map[Persona]map[Preset][]Message
}

// NewProvider creates a provider with time-seeded auto selection.
func NewProvider() *Provider {
	return NewProviderWithSeed(time.Now().UnixNano())
}

// NewProviderWithSeed creates a provider whose auto selection is
// deterministic for the given seed. Intended for tests.
func NewProviderWithSeed(seed int64) *Provider {
	// Anchor fabricated history a week back, on an hour boundary, so the
	// newest message is plausibly recent but never in the future.
	anchor := time.Now().AddDate(0, 0, -7).Truncate(time.Hour)

	built := make(map[Persona]map[Preset][]Message, len(catalog))
	for persona, presets := range catalog {
		built[persona] = make(map[Preset][]Message, len(presets))
		for preset, entry := range presets {
			messages := make([]Message, len(entry.lines))
			for i, line := range entry.lines {
				author := entry.contact
				if line.direction == DirectionOutgoing {
					author = selfAuthor
				}
				messages[i] = Message{
					ID:        uuid.NewString(),
					Author:    author,
					Direction: line.direction,
					Text:      line.text,
					SentAt:    anchor.Add(line.offset),
				}
			}
			built[persona][preset] = messages
		}
	}

	return &Provider{
		rng:   rand.New(rand.NewSource(seed)),
		built: built,
	}
}

// Conversation returns the ordered fabricated messages for the given
// persona and preset. PresetAuto picks among the persona's presets. The
// returned slice is a copy; callers may mutate it freely.
func (p *Provider) Conversation(persona Persona, preset Preset) ([]Message, error) {
	presets, ok := p.built[persona]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, persona)
	}

	if preset == PresetAuto {
		preset = p.pickPreset(presets)
	}

	messages, ok := presets[preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q for persona %q", ErrUnknownPreset, preset, persona)
	}

	out := make([]Message, len(messages))
	copy(out, messages)
	return out, nil
}

// Personas lists the personas present in the catalog, sorted.
func (p *Provider) Personas() []Persona {
	out := make([]Persona, 0, len(p.built))
	for persona := range p.built {
		out = append(out, persona)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Presets lists the persona's preset names, sorted. PresetAuto is implicit
// and not included.
func (p *Provider) Presets(persona Persona) ([]Preset, error) {
	presets, ok := p.built[persona]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, persona)
	}
	out := make([]Preset, 0, len(presets))
	for preset := range presets {
		out = append(out, preset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// pickPreset chooses one preset pseudo-randomly. Selection iterates a
// sorted name list so equal seeds give equal picks regardless of map order.
func (p *Provider) pickPreset(presets map[Preset][]Message) Preset {
	names := make([]Preset, 0, len(presets))
	for preset := range presets {
		names = append(names, preset)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	p.mu.Lock()
	defer p.mu.Unlock()
	return names[p.rng.Intn(len(names))]
}
