package constants

// ContextKeyUserID is the gin context key under which the authenticated
// user's identity provider subject is stored.
const ContextKeyUserID = "user_id"

// MaxTitleLength is the maximum ticket title length in characters,
// measured after trimming.
const MaxTitleLength = 200

// FilterAll is the query-string sentinel meaning "no constraint" for the
// enumerated ticket filters.
const FilterAll = "all"
