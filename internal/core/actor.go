// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

// Actor is the guild member on whose behalf a service call runs.
type Actor struct {
	GuildID string
	UserID  string
	RoleIDs []string
	// IsAdmin is set for members with the Administrator or Manage Guild
	// permission.
	IsAdmin bool
}

// HasRole reports whether the actor holds roleID. An empty roleID is never held.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range a.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}
