// Package services implements the HTTP clients behind cinex: catalog metadata, authentication and profile storage.
//
// # Metadata
//
// [MetadataService] wraps the TMDB v3 API. Detail requests append credits so a single
// round trip fills the detail page. Requests are paced by a [rate.Limiter]; there is no
// caching and no retry, so every detail visit fetches fresh data.
//
// # Authentication
//
// [AuthService] speaks the GoTrue REST protocol used by Supabase-style backends. It owns the
// session (persisted through a [SessionStorage]), refreshes it when the access token expires,
// and notifies [AuthListener] subscribers of sign-in, sign-out and refresh. Listeners are
// invoked while the service holds its session lock, which is why consumers must defer any
// follow-up work that calls back into the provider.
//
// Provider failures surface as [*AuthError] values and are passed through to callers unchanged.
//
// # Profiles
//
// [ProfileService] reads and patches rows of the PostgREST profiles table. Each request is
// authorized with the caller's session through an [oauth2.StaticTokenSource] client.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrContentNotFound] : metadata 404
//   - [shared.ErrProfileNotFound] : no profile row for the user
//   - [shared.ErrAPIRequest] : any other non-2xx response
//   - [shared.ErrRefreshFailed] : the refresh token was rejected
package services
