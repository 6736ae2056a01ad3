// Package greeting provides the message served at the site root.
package greeting

// Text is the greeting served to every client.
const Text = "Hello, welcome to iQuant YouTube Channel!"

// Message returns the greeting. It never fails and always returns Text.
func Message() string {
	return Text
}
