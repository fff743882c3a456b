// Package cli is a small interactive front end for the auth client. It plays
// the role of the mobile screens: it collects credentials, performs
// field-level validation feedback locally, and otherwise only reacts to
// session store changes.
package cli
