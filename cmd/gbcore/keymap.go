package main

import "github.com/dmgcore/gbcore"

// defaultKeyMap maps single-rune keys to Game Boy buttons, usable by both
// the terminal and SDL2 backends. Arrow keys are handled separately since
// they arrive as named keys rather than runes on most input layers.
var defaultKeyMap = map[rune]gbcore.Button{
	'z': gbcore.ButtonA,
	'x': gbcore.ButtonB,
	'a': gbcore.ButtonSelect,
	's': gbcore.ButtonStart,
}
