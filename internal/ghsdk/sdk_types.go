package ghsdk

const (
	HeaderAccept             = "Accept"
	HeaderAPIVersion         = "X-GitHub-Api-Version"
	HeaderAcceptedScopes     = "X-Accepted-OAuth-Scopes"
	HeaderOAuthScopes        = "X-OAuth-Scopes"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	mediaTypeGitHubJSON = "application/vnd.github+json"
	apiVersion          = "2022-11-28"
)
