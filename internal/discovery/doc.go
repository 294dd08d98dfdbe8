// Package discovery implements the catalog search screen independent of any renderer.
//
// A [Controller] holds the latest search results and the signed-in user's watched and liked
// movie sets. It subscribes to session transitions, reloads the preference record whenever a user
// signs in, and writes toggles through a [models.PreferenceStore] before changing local state.
//
// Views call [Controller.Snapshot] to render and supply a [Notifier] for blocking notices.
package discovery
