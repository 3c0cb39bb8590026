// Package views holds presentation state that is independent of the terminal renderer: the content
// detail page and the signup, login and onboarding forms. Views report problems through a
// [Notifier] rather than returning them to a renderer.
package views
