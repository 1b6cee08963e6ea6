package messages

const (
	// Transcribe queue, an uploaded audio chunk waits for the transcription worker
	Transcribe string = "Transcribe"
	// Translated queue, a job result is persisted
	Translated string = "Translated"
)
