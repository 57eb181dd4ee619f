// Package report renders suite results as Markdown, HTML or JSON.
//
// The Markdown rendering is the canonical form; HTML is produced from
// it with goldmark and is what the "migratest serve" command exposes.
// Database credentials are redacted before they reach any output.
package report
