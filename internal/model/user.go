// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines constants shared across packages: event log
// levels and categories, display name limits and the reaction emoji set.
package model

// Display name limits.
const (
	MaxDisplayNameLength = 50
)

// Reaction emojis members may use.
const (
	EmojiThumbsUp   = "👍"
	EmojiThumbsDown = "👎"
	EmojiHeart      = "❤️"
	EmojiGrin       = "😀"
)

// ReactionEmojis lists the allowed reactions in display order.
func ReactionEmojis() []string {
	return []string{EmojiThumbsUp, EmojiThumbsDown, EmojiHeart, EmojiGrin}
}

// IsReactionEmoji reports whether e is an allowed reaction.
func IsReactionEmoji(e string) bool {
	for _, allowed := range ReactionEmojis() {
		if e == allowed {
			return true
		}
	}
	return false
}
