package assistant

// Fixed user-facing reply texts. These must stay byte-stable: the
// duplicate-reply guard compares them against the previous assistant turn to
// keep a persistent misconfiguration from flooding a conversation.
const (
	noticeNotConfigured = "The AI assistant is not configured on this server yet, so I can't generate replies. " +
		"Ask the administrator to set an API key."
	noticeModelNotFound = "I couldn't reach any of my configured language models. " +
		"Please ask the administrator to check the model configuration."
	noticeQuotaExceeded = "I've hit the usage quota for my language model. " +
		"Please try again later or check the provider billing plan."
	noticeInvalidCredentials = "My language model API key looks invalid. " +
		"Please ask the administrator to check the server configuration."
	noticeServiceUnavailable = "The language model service is temporarily unavailable. " +
		"Please try again in a moment."
	noticeSafetyBlocked = "I couldn't answer that because the provider's safety filters blocked it. " +
		"Try rephrasing your message."
	noticeUnknown = "Something went wrong while generating a reply. Please try again."
)

// NoticeFor returns the fixed reply text for a failure classification.
func NoticeFor(c Classification) string {
	switch c {
	case ClassModelNotFound:
		return noticeModelNotFound
	case ClassQuotaExceeded:
		return noticeQuotaExceeded
	case ClassInvalidCredentials:
		return noticeInvalidCredentials
	case ClassServiceUnavailable:
		return noticeServiceUnavailable
	case ClassSafetyBlocked:
		return noticeSafetyBlocked
	default:
		return noticeUnknown
	}
}
