package dynamo

// DynamoDB attribute names used in expressions across all repos.
const (
	fieldEmail        = "email"
	fieldUserID       = "user_id"
	fieldIdentifier   = "identifier"
	fieldPasswordHash = "password_hash"
	fieldUpdatedAt    = "updated_at"
	fieldTTL          = "ttl"
)
