package blob

import (
	"fmt"
	"path"
	"strconv"
)

const (
	transcriptsDir = "transcripts"
	locksDir       = "locks"
	resultsDir     = "final_results"
	rawAudioDir    = "raw_audio"
)

//TranscriptKey returns the key the transcription worker writes chunk transcript to
func TranscriptKey(jobID string, chunk int) string {
	return fmt.Sprintf("%s/%s_part_%d.json", transcriptsDir, jobID, chunk)
}

//LockKey returns the job lock key
func LockKey(jobID string) string {
	return path.Join(locksDir, jobID)
}

//CompleteResultKey returns the key of the translated subtitles document
func CompleteResultKey(jobID string) string {
	return fmt.Sprintf("%s/%s_TW_Complete.txt", resultsDir, jobID)
}

//PlainTextResultKey returns the key of the plain text document
func PlainTextResultKey(jobID string) string {
	return fmt.Sprintf("%s/%s_TW_PlainText.txt", resultsDir, jobID)
}

//RawAudioKey returns the key of the uploaded audio chunk
func RawAudioKey(jobID string, chunk int) string {
	return path.Join(rawAudioDir, jobID, strconv.Itoa(chunk))
}

//MetadataKey returns the key of the upload metadata
func MetadataKey(jobID string) string {
	return path.Join(rawAudioDir, jobID, "metadata.json")
}
