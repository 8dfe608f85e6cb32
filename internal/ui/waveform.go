// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"hash/fnv"
	"strings"

	"github.com/cosmoscoderrs/mira-tui/internal/ui/styles"
)

// =============================================================================
// WAVEFORMS
// =============================================================================

// VoiceWaveformBars is how many bars a voice bubble's waveform has.
const VoiceWaveformBars = 28

// CallWaveformBars is how many bars the live-call level meter has.
const CallWaveformBars = 20

// waveGlyphs are bar heights from quietest to loudest.
var waveGlyphs = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇'}

// waveformHeights derives a stable pseudo-random bar pattern from a seed so
// a message's waveform looks the same on every repaint.
func waveformHeights(seed string, bars int) []int {
	h := fnv.New64a()
	h.Write([]byte(seed))
	state := h.Sum64()

	heights := make([]int, bars)
	for i := range heights {
		// xorshift
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		heights[i] = int(state % uint64(len(waveGlyphs)))
	}
	return heights
}

// RenderVoiceWaveform renders a voice bubble's waveform. active is the
// animation center, or -1 when idle; bars within 4 positions of it light
// up, mirroring the playback animation.
func RenderVoiceWaveform(theme *styles.Theme, seed string, active int) string {
	heights := waveformHeights(seed, VoiceWaveformBars)

	var b strings.Builder
	for i, height := range heights {
		glyph := string(waveGlyphs[height])
		hot := active >= 0 && abs(i-active) < 4
		if hot {
			b.WriteString(theme.VoiceBarHot.Render(glyph))
		} else {
			b.WriteString(theme.VoiceBar.Render(glyph))
		}
	}
	return b.String()
}

// RenderCallWaveform renders the live input-level meter. level is the
// microphone level in [0, 1]; frame shifts a ripple so the meter moves even
// at a steady level.
func RenderCallWaveform(theme *styles.Theme, level float64, frame int) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	var b strings.Builder
	for i := 0; i < CallWaveformBars; i++ {
		// Ripple: neighbors of the frame cursor get a boost
		boost := 0.0
		if abs(i-frame%CallWaveformBars) < 3 {
			boost = 0.25
		}
		v := level + boost
		if v > 1 {
			v = 1
		}
		idx := int(v * float64(len(waveGlyphs)-1))
		glyph := string(waveGlyphs[idx])
		if v > 0.5 {
			b.WriteString(theme.CallWaveHot.Render(glyph))
		} else {
			b.WriteString(theme.CallWaveBar.Render(glyph))
		}
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
