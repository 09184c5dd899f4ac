// Package transcript exports a conversation as a self-contained HTML page.
//
// Message bodies are markdown and go through goldmark with its default
// (unsafe-off) renderer, so raw HTML typed into a chat is dropped from the
// output rather than executed when the transcript is opened in a browser.
package transcript
