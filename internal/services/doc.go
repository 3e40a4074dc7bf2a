// Package services defines the [Service] interface for personal media backends and implements it for Subsonic-protocol servers and Plex.
//
// # Service Interface
//
// All backends implement a common capability contract (search, track lookup, stream
// locator, scrobble/star), letting the resolver and session engine treat providers
// polymorphically.
//
// # Subsonic Implementation
//
// [SubsonicService] speaks the Subsonic REST API (Navidrome, Airsonic, Gonic, ...)
// with per-request salted-token authentication (t = md5(password + salt)).
//
// Stream and cover-art locators are constructed locally, so tracks from this backend
// carry eager stream URLs.
//
// # Plex Implementation
//
// [PlexService] speaks the Plex HTTP API using a static X-Plex-Token header.
//
// Stream locators come from Media/Part metadata and are resolved lazily when a search
// payload omits them. Collections Plex cannot serve (starred) return
// [shared.ErrNotSupported] so the engine can fall back to another backend.
//
// # Normalization
//
// Backend payloads disagree on field names across servers and versions, so each
// service normalizes its raw [models.Candidate] records through ordered fallback
// property paths (first non-empty wins), e.g. a Plex track's artist is
// originalTitle before grandparentTitle. See [FieldPaths].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrSourceUnreachable] : network failure, auth rejection, or 5xx
//   - [shared.ErrTrackNotFound] : lookup by ID matched nothing
//   - [shared.ErrNotSupported] : the backend cannot serve the requested collection
package services
