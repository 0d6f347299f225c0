// Package session is the single source of truth for the signed-in principal and
// its credential pair. Every credential change is projected into a cookie
// mirror inside the same critical section, and every change is persisted in
// the background so a restarted process can pick the session back up.
package session
