// Package mediawiki is the boundary to the MediaWiki action API.
//
// It covers exactly the calls a sync run makes and nothing more: paginated
// queries (QueryAll) with recent changes and category members built on top,
// XML export, login and tokens, page moves and XML import. Every request
// asks for formatversion=2 with plaintext errors, so a failure surfaces as
// one of three typed errors:
//
//   - *TransportError for network, TLS or HTTP status failures
//   - *APIError for errors reported in the response envelope
//   - *AuthError for a login that did not succeed
//
// A Client holds one cookie jar and therefore one session per wiki. Requests
// carry a call-site label in their context; FixtureTransport uses it to
// record responses to YAML files and to replay them without network access.
package mediawiki
