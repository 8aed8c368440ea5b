package domain

// KeyPrefix is the default prefix for all keys written to the cache store.
const KeyPrefix = "reltag:"
