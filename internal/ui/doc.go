// Package ui implements the session dashboard using bubbletea's Elm architecture.
//
// Views:
//  1. [LoginView] : sign in, or create an account after ctrl+r
//  2. [DashboardView] : expiry countdowns, session flags and the last protected response
//  3. [EventsView] : recent session events, when an event source is configured
//
// The [Model] drives a [Session] through commands so network calls never block rendering.
// Teardown notices and login redirects from the session arrive through a [Bridge], which implements
// session.Notifier and session.Redirector by forwarding onto a channel the model listens on.
// A redirect returns to the login view with the reason code shown.
package ui
