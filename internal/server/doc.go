// Package server runs the local HTTP endpoint that completes the Spotify authorization code flow.
//
// # Routing
//
// [CallbackMux] mounts [Handler]s behind a [Middleware] stack and answers GET only on their routes.
// Any other path gets a 404 naming the expected callback route.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, hands the code to an [Exchanger], and sends the result
// through a channel. It only processes one callback.
//
// The auth command starts a [CallbackServer] on the configured redirect address, opens the consent
// page in a browser, and shuts the server down once [AwaitToken] returns.
package server
