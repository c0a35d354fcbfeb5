// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core is the service layer of econbot. Services validate input,
// check permissions of the acting member, call the gateways in internal/db
// and publish events. They know nothing about Discord: the bot layer maps an
// interaction to an Actor and renders the returned values or errors.
//
// Errors are returned as values. Callers match the sentinel errors with
// errors.Is and extract detail from *ValidationError, *PermissionError,
// *model.ThrottleError and *model.LimitError with errors.As.
package core
