package transcript

import (
	"encoding/json"

	"github.com/pkg/errors"
)

//Segment is a timed text span in chunk local time
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

//Chunk is a transcript of one audio chunk, written by the transcription worker
type Chunk struct {
	Segments []Segment `json:"segments"`
	// Duration of the source audio chunk in seconds
	Duration float64 `json:"duration"`
	Text     string  `json:"text,omitempty"`
}

//Parse decodes a transcript object
func Parse(data string) (*Chunk, error) {
	res := &Chunk{}
	if err := json.Unmarshal([]byte(data), res); err != nil {
		return nil, errors.Wrap(err, "can't decode transcript")
	}
	if res.Duration < 0 {
		return nil, errors.Errorf("wrong duration %v", res.Duration)
	}
	return res, nil
}
