// Package decoy supplies the fabricated conversations shown after a duress
// unlock.
//
// The catalog is compiled into the binary and the provider depends on
// nothing else: no store, no key material, no network. That isolation is
// load-bearing. The decoy path must be structurally unable to leak genuine
// content, so it simply has no reference to any component that holds
// genuine content.
//
// Each visual persona of the host application has a set of named presets.
// [Provider.Conversation] returns the preset's messages in order, with
// stable identifiers and timestamps fixed at provider construction, so
// repeated unlocks show the same plausible history rather than a suspicious
// reshuffle. [PresetAuto] picks one of the persona's presets pseudo-randomly
// but always returns a single complete conversation.
package decoy
