package result

const (
	// Complete indicates translated subtitles document
	Complete = "complete"
	// Plain indicates plain text document derived from subtitles
	Plain = "plain"
)
