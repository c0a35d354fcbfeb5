// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the econbot command line using Cobra. It loads the
// configuration, opens the store and either runs the bot or performs an
// operator task such as a migration, a backup or a balance correction.
package cli
