package domain

// KeyPrefix namespaces every key the Redis-backed repositories write.
const KeyPrefix = "searchai:"
