// Package models defines the domain types shared by the cinex client.
//
// The package contains three groups of types:
//
// 1. Catalog data returned by the metadata API (read-only, fetched fresh per visit)
//   - [Content] : a movie or TV show with optional credits
//   - [Genre], [CastMember], [Credits]
//
// 2. Account data owned by the managed backend
//   - [Session] : tokens and user issued by the auth provider
//   - [Profile] : the profile row keyed by user id
//   - [Identity] : the profile merged with the session user, held by the session store
//   - [ProfileUpdate] : a partial profile write
//
// 3. Navigation
//   - [Route] : the client routes (/, /auth, /onboarding, /watchlist, /movie/:id, /tv/:id)
package models
