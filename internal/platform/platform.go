// Package platform maps catalog platform identifiers to EmulatorJS core
// identifiers and display labels. The ids match the EJS_core values
// directly, so the core lookup is currently the identity for every known
// platform; the indirection stays so a catalog id can diverge from the
// emulator's naming without touching callers.
package platform

import "sort"

type info struct {
	Core  string
	Label string
}

var registry = map[string]info{
	// Nintendo
	"nes":  {Core: "nes", Label: "NES"},
	"snes": {Core: "snes", Label: "SNES"},
	"n64":  {Core: "n64", Label: "Nintendo 64"},
	"gb":   {Core: "gb", Label: "Game Boy"},
	"gba":  {Core: "gba", Label: "GBA"},
	"nds":  {Core: "nds", Label: "Nintendo DS"},
	"vb":   {Core: "vb", Label: "Virtual Boy"},
	// Sega
	"genesis":  {Core: "genesis", Label: "Genesis / Mega Drive"},
	"sms":      {Core: "sms", Label: "Master System"},
	"gamegear": {Core: "gamegear", Label: "Game Gear"},
	"sega32x":  {Core: "sega32x", Label: "Sega 32X"},
	"segacd":   {Core: "segacd", Label: "Sega CD"},
	"saturn":   {Core: "saturn", Label: "Sega Saturn"},
	// Sony
	"psx": {Core: "psx", Label: "PlayStation"},
	"psp": {Core: "psp", Label: "PSP"},
	// Atari
	"atari2600": {Core: "atari2600", Label: "Atari 2600"},
	"atari5200": {Core: "atari5200", Label: "Atari 5200"},
	"atari7800": {Core: "atari7800", Label: "Atari 7800"},
	"jaguar":    {Core: "jaguar", Label: "Atari Jaguar"},
	"lynx":      {Core: "lynx", Label: "Atari Lynx"},
	// Commodore
	"c64":   {Core: "c64", Label: "Commodore 64"},
	"c128":  {Core: "c128", Label: "Commodore 128"},
	"amiga": {Core: "amiga", Label: "Amiga"},
	"pet":   {Core: "pet", Label: "Commodore PET"},
	"plus4": {Core: "plus4", Label: "Commodore Plus/4"},
	"vic20": {Core: "vic20", Label: "Commodore VIC-20"},
	// Other
	"3do":      {Core: "3do", Label: "3DO"},
	"arcade":   {Core: "arcade", Label: "Arcade"},
	"coleco":   {Core: "coleco", Label: "ColecoVision"},
	"mame2003": {Core: "mame2003", Label: "MAME 2003"},
}

// Entry is one platform for presentation (selectors, filters).
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CoreFor returns the emulator core identifier for a platform id. Unknown
// ids report ok=false rather than failing; the registry drives optional
// UI, not correctness-critical logic.
func CoreFor(id string) (string, bool) {
	p, ok := registry[id]
	return p.Core, ok
}

// LabelFor returns the display label for a platform id, falling back to
// the raw id when unknown.
func LabelFor(id string) string {
	if p, ok := registry[id]; ok {
		return p.Label
	}
	return id
}

// Known reports whether a platform id exists in the registry.
func Known(id string) bool {
	_, ok := registry[id]
	return ok
}

// IDs returns every registered platform id, unsorted.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

// Entries returns all platforms sorted by label.
func Entries() []Entry {
	entries := make([]Entry, 0, len(registry))
	for id, p := range registry {
		entries = append(entries, Entry{ID: id, Label: p.Label})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
	return entries
}
