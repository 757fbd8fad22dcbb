// Package config loads the server's environment-driven configuration: the
// Firestore project and credentials, transport selection, cache sizing,
// observability settings, and HTTP auth material. A .env file in the working
// directory is honored when present.
package config
