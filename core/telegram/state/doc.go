// Package state tracks the single pending action of each Telegram user and
// serializes the handling of one user's updates.
//
// State lives in memory only; a restart returns every user to idle.
package state
